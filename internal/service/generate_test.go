package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/learnchat/internal/domain"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/tests/helpers"
)

const outlineReply = `{"courseOutline":{"title":"AI 101","description":"Intro","goal":"g","audience":"a",
"topics":["Intro"],"chapters":[{"title":"Ch 1","sections":[{"title":"S1","description":"D1"}]}]}}`

func TestGenerateCourseOutlineAppliesDefaults(t *testing.T) {
	llm := helpers.NewScriptedLLM().Reply(outlineReply)
	env := newTestEnv(t, llm, tools.Deps{})

	out, err := env.svc.GenerateCourseOutline(context.Background(), &domain.CourseOutlineRequest{Goal: "  "})
	require.NoError(t, err)
	assert.Equal(t, "AI 101", out.CourseOutline.Title)
	require.Len(t, out.CourseOutline.Chapters, 1)
	assert.Equal(t, "S1", out.CourseOutline.Chapters[0].Sections[0].Title)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, env.cfg.Models.Outline, req.Model)
	assert.Equal(t, float32(0.4), req.Temperature)
	assert.Equal(t, 8000, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONSchema, req.ResponseFormat.Type)
	assert.Equal(t, "CourseOutline", req.ResponseFormat.JSONSchema.Name)
	assert.True(t, req.ResponseFormat.JSONSchema.Strict)

	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, `"Learn the fundamentals of AI"`)
	assert.Contains(t, prompt, "Introduction to AI, Machine Learning Basics, Deep Learning Concepts")
	assert.Contains(t, prompt, "Beginners interested in AI")
}

func TestGenerateTopics(t *testing.T) {
	llm := helpers.NewScriptedLLM().Reply(`{"goal":"Learn Go","audience":"devs","topics":[{"topic":"Goroutines","reasoning":"core"}],"reasoning":"ok"}`)
	env := newTestEnv(t, llm, tools.Deps{})

	out, err := env.svc.GenerateTopics(context.Background(), &domain.TopicsRequest{Goal: "Learn Go", Audience: "devs"})
	require.NoError(t, err)
	require.Len(t, out.Topics, 1)
	assert.Equal(t, "Goroutines", out.Topics[0].Topic)

	req := llm.Requests()[0]
	assert.Equal(t, env.cfg.Models.Topics, req.Model)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Equal(t, `Create a course outline for a course with the goal of "Learn Go". Audience: "devs".`, req.Messages[1].Content)
}

func TestGenerateQuote(t *testing.T) {
	llm := helpers.NewScriptedLLM().Reply("```json\n{\"quote\":{\"quote\":\"Stay hungry\",\"author\":\"Jobs\",\"source\":\"speech\"}}\n```")
	env := newTestEnv(t, llm, tools.Deps{})

	out, err := env.svc.GenerateQuote(context.Background(), &domain.QuoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Stay hungry", out.Quote.Quote)

	req := llm.Requests()[0]
	assert.Equal(t, `Quote: "inspiration". Author: "motivational". Source: "medium".`, req.Messages[1].Content)
	assert.Equal(t, env.cfg.Models.Structured, req.Model)
}

func TestGenerateQuoteRejectsOutputNotMatchingSchema(t *testing.T) {
	llm := helpers.NewScriptedLLM().Reply(`{"quote":{"quote":"only this"}}`)
	env := newTestEnv(t, llm, tools.Deps{})

	_, err := env.svc.GenerateQuote(context.Background(), &domain.QuoteRequest{Quote: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
}

func TestGenerateModelFailure(t *testing.T) {
	llm := helpers.NewScriptedLLM()
	llm.ReplyErr = errors.New("model offline")
	env := newTestEnv(t, llm, tools.Deps{})

	_, err := env.svc.GenerateTopics(context.Background(), &domain.TopicsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestGenerateCourseContent(t *testing.T) {
	reply := `{"courseContent":{"chapters":[{"title":"Ch","sections":[{"title":"S","description":"D"}]}]}}`

	t.Run("missing outline", func(t *testing.T) {
		env := newTestEnv(t, helpers.NewScriptedLLM(), tools.Deps{})
		for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`""`)} {
			_, err := env.svc.GenerateCourseContent(context.Background(), &domain.CourseContentRequest{CourseOutline: raw})
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		}
	})

	t.Run("string outline", func(t *testing.T) {
		llm := helpers.NewScriptedLLM().Reply(reply)
		env := newTestEnv(t, llm, tools.Deps{})
		out, err := env.svc.GenerateCourseContent(context.Background(), &domain.CourseContentRequest{CourseOutline: json.RawMessage(`"Chapter one: basics"`)})
		require.NoError(t, err)
		assert.Equal(t, "Ch", out.CourseContent.Chapters[0].Title)
		assert.Equal(t, "Generate the content for the course sections based on the outline Chapter one: basics.", llm.Requests()[0].Messages[1].Content)
	})

	t.Run("object outline", func(t *testing.T) {
		llm := helpers.NewScriptedLLM().Reply(reply)
		env := newTestEnv(t, llm, tools.Deps{})
		_, err := env.svc.GenerateCourseContent(context.Background(), &domain.CourseContentRequest{CourseOutline: json.RawMessage(`{"title":"AI"}`)})
		require.NoError(t, err)
		assert.Contains(t, llm.Requests()[0].Messages[1].Content, `{"title":"AI"}`)
	})
}

func TestAnalyzeImage(t *testing.T) {
	reply := `{"imageVision":[{"description":"a cat","objects":["cat"],"text":"","scene":"sofa",
"attributes":{"colors":["grey"],"lighting":"soft","composition":"centered"}}]}`

	env := newTestEnv(t, helpers.NewScriptedLLM(), tools.Deps{})
	_, err := env.svc.AnalyzeImage(context.Background(), &domain.ImageVisionRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	llm := helpers.NewScriptedLLM().Reply(reply)
	env = newTestEnv(t, llm, tools.Deps{})
	out, err := env.svc.AnalyzeImage(context.Background(), &domain.ImageVisionRequest{ImageURL: "https://example.com/cat.png"})
	require.NoError(t, err)
	require.Len(t, out.ImageVision, 1)
	assert.Equal(t, "a cat", out.ImageVision[0].Description)

	req := llm.Requests()[0]
	assert.Equal(t, env.cfg.Models.Vision, req.Model)
	parts := req.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "Provide a detailed description.")
	assert.Equal(t, "https://example.com/cat.png", parts[1].ImageURL.URL)
}

func TestReviewRecipe(t *testing.T) {
	llm := helpers.NewScriptedLLM().Reply("Add more garlic.")
	env := newTestEnv(t, llm, tools.Deps{})

	_, err := env.svc.ReviewRecipe(context.Background(), &domain.ReviewRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	out, err := env.svc.ReviewRecipe(context.Background(), &domain.ReviewRequest{Recipe: "Pesto", Ingredients: []string{"basil", "garlic"}})
	require.NoError(t, err)
	assert.Equal(t, "Add more garlic.", out.Review)

	req := llm.Requests()[0]
	assert.Equal(t, env.cfg.Models.Review, req.Model)
	assert.Nil(t, req.ResponseFormat)
	assert.Equal(t, "Recipe: Pesto. Includes the following ingredients: basil, garlic.", req.Messages[1].Content)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
