package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/xiaot623/learnchat/internal/adapter/llm"
	"github.com/xiaot623/learnchat/internal/domain"
)

const (
	defaultGoal     = "Learn the fundamentals of AI"
	defaultAudience = "Beginners interested in AI"

	defaultQuote  = "inspiration"
	defaultAuthor = "motivational"
	defaultSource = "medium"

	defaultVisionPrompt = "Provide a detailed description."
)

var defaultTopics = []string{"Introduction to AI", "Machine Learning Basics", "Deep Learning Concepts"}

const (
	outlineSystemPrompt = "You are an english course outline generator. Your output MUST be valid JSON and follow the given schema. DO NOT provide explanations, introductions, markdown formatting, or any extra text. Only return the JSON object."
	topicsSystemPrompt  = "You are an english topic generator that generates highly relevant one-two words topics based on a goal and audience. Your output MUST be valid JSON and follow the given schema. DO NOT provide explanations, introductions, markdown formatting, or any extra text. Only return the JSON object."
	quoteSystemPrompt   = "You are a quote formatter. Your output MUST be valid JSON and follow the given schema."
	contentSystemPrompt = "You are an english course content generator. Your output MUST be valid JSON and follow the given schema. DO NOT provide explanations, introductions, markdown formatting, or any extra text. Only return the JSON object."
	visionSystemPrompt  = "You are a visual descriptor assistant that describes images and extracts information from them. Your output MUST be valid JSON and follow the given schema."
	reviewSystemPrompt  = "You a a recipe reviwer that reviews recipes based on name and ingredients, in order to ensure the recipe covers the full scope of the ingredients and is easy to follow."
)

type generateParams struct {
	name        string
	model       string
	system      string
	user        openai.ChatCompletionMessage
	temperature float32
	maxTokens   int
}

// generateObject asks the model for one JSON document matching the schema
// of out and decodes it into out.
func (s *Service) generateObject(ctx context.Context, p generateParams, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("failed to build %s schema: %w", p.name, err)
	}

	req := &llm.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.system},
			p.user,
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   p.name,
				Schema: schema,
				Strict: true,
			},
		},
	}

	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", p.name, err)
	}
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := schema.Unmarshal(content, out); err != nil {
		s.logger.Warn("model output does not match schema", "schema", p.name, "output", content, "error", err)
		return fmt.Errorf("failed to generate %s: model output does not match schema: %w", p.name, err)
	}
	s.logger.Debug("structured generation done", "schema", p.name, "model", resp.Model,
		"promptTokens", resp.Usage.PromptTokens, "completionTokens", resp.Usage.CompletionTokens)
	return nil
}

func userText(text string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
}

// stripCodeFence removes a ```json fence some local models wrap JSON in.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// GenerateCourseOutline produces a course outline for a goal, audience and topics.
func (s *Service) GenerateCourseOutline(ctx context.Context, req *domain.CourseOutlineRequest) (*domain.CourseOutlineResult, error) {
	goal := orDefault(req.Goal, defaultGoal)
	audience := orDefault(req.Audience, defaultAudience)
	topics := req.Topics
	if len(topics) == 0 {
		topics = defaultTopics
	}

	var out domain.CourseOutlineResult
	err := s.generateObject(ctx, generateParams{
		name:        "CourseOutline",
		model:       s.config.Models.Outline,
		system:      outlineSystemPrompt,
		user:        userText(fmt.Sprintf("Create a course outline for a course with the goal of %q. Topics: %s. Audience: %s.", goal, strings.Join(topics, ", "), audience)),
		temperature: 0.4,
		maxTokens:   8000,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTopics proposes course topics for a goal and audience.
func (s *Service) GenerateTopics(ctx context.Context, req *domain.TopicsRequest) (*domain.TopicsResult, error) {
	goal := orDefault(req.Goal, defaultGoal)
	audience := orDefault(req.Audience, defaultAudience)

	var out domain.TopicsResult
	err := s.generateObject(ctx, generateParams{
		name:        "topics",
		model:       s.config.Models.Topics,
		system:      topicsSystemPrompt,
		user:        userText(fmt.Sprintf("Create a course outline for a course with the goal of %q. Audience: %q.", goal, audience)),
		temperature: 0.2,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateQuote formats a quote from a theme, tone and length.
func (s *Service) GenerateQuote(ctx context.Context, req *domain.QuoteRequest) (*domain.QuoteResult, error) {
	quote := orDefault(req.Quote, defaultQuote)
	author := orDefault(req.Author, defaultAuthor)
	source := orDefault(req.Source, defaultSource)

	var out domain.QuoteResult
	err := s.generateObject(ctx, generateParams{
		name:        "Quote",
		model:       s.config.Models.Structured,
		system:      quoteSystemPrompt,
		user:        userText(fmt.Sprintf("Quote: %q. Author: %q. Source: %q.", quote, author, source)),
		temperature: 0.5,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCourseContent expands an outline into chapters and sections.
func (s *Service) GenerateCourseContent(ctx context.Context, req *domain.CourseContentRequest) (*domain.CourseContentResult, error) {
	outline, err := outlineText(req.CourseOutline)
	if err != nil {
		return nil, err
	}

	var out domain.CourseContentResult
	err = s.generateObject(ctx, generateParams{
		name:        "CourseContent",
		model:       s.config.Models.Structured,
		system:      contentSystemPrompt,
		user:        userText(fmt.Sprintf("Generate the content for the course sections based on the outline %s.", outline)),
		temperature: 0.4,
		maxTokens:   8000,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// outlineText accepts the outline as a JSON string or any JSON value.
func outlineText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", fmt.Errorf("%w: courseOutline is required", domain.ErrInvalidRequest)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: courseOutline is required", domain.ErrInvalidRequest)
		}
		return text, nil
	}
	return trimmed, nil
}

// AnalyzeImage describes an image.
func (s *Service) AnalyzeImage(ctx context.Context, req *domain.ImageVisionRequest) (*domain.ImageVisionResult, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, fmt.Errorf("%w: Image URL is required", domain.ErrInvalidRequest)
	}
	prompt := orDefault(req.Prompt, defaultVisionPrompt)

	user := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("Analyze the following image:\n\n%s\n\nAdditional instructions: %s", req.ImageURL, prompt),
			},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: s.modelImageURL(req.ImageURL), Detail: openai.ImageURLDetailAuto},
			},
		},
	}

	var out domain.ImageVisionResult
	err := s.generateObject(ctx, generateParams{
		name:        "ImageVision",
		model:       s.config.Models.Vision,
		system:      visionSystemPrompt,
		user:        user,
		temperature: 0.2,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReviewRecipe returns a free-text review of a recipe.
func (s *Service) ReviewRecipe(ctx context.Context, req *domain.ReviewRequest) (*domain.ReviewResult, error) {
	if strings.TrimSpace(req.Recipe) == "" {
		return nil, fmt.Errorf("%w: recipe is required", domain.ErrInvalidRequest)
	}

	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: s.config.Models.Review,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reviewSystemPrompt},
			userText(fmt.Sprintf("Recipe: %s. Includes the following ingredients: %s.", req.Recipe, strings.Join(req.Ingredients, ", "))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to review recipe: %w", err)
	}
	return &domain.ReviewResult{Review: resp.Choices[0].Message.Content}, nil
}
