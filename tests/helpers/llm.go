package helpers

import (
	"context"
	"errors"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/xiaot623/learnchat/internal/adapter/llm"
)

// ScriptedCall is a tool call the scripted model requests.
type ScriptedCall struct {
	ID   string
	Name string
	Args string
}

// ScriptedStep is the streamed output of one model call.
type ScriptedStep struct {
	Text   []string
	Calls  []ScriptedCall
	Finish openai.FinishReason
	Err    error
}

// ScriptedLLM replays a fixed sequence of streamed steps and non-streaming
// replies, recording every request it receives.
type ScriptedLLM struct {
	mu        sync.Mutex
	steps     []ScriptedStep
	replies   []string
	requests  []openai.ChatCompletionRequest
	ReplyErr  error
	StepUsage openai.Usage
}

var _ llm.LLMClient = (*ScriptedLLM)(nil)

func NewScriptedLLM(steps ...ScriptedStep) *ScriptedLLM {
	return &ScriptedLLM{
		steps:     steps,
		StepUsage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// Reply queues the content of the next non-streaming completion.
func (s *ScriptedLLM) Reply(content string) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, content)
	return s
}

// Requests returns copies of the requests seen so far.
func (s *ScriptedLLM) Requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

func (s *ScriptedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, cloneRequest(req))
	if s.ReplyErr != nil {
		s.mu.Unlock()
		return nil, s.ReplyErr
	}
	if len(s.replies) == 0 {
		s.mu.Unlock()
		return nil, errors.New("scripted llm: no reply queued")
	}
	content := s.replies[0]
	s.replies = s.replies[1:]
	s.mu.Unlock()

	return &llm.ChatCompletionResponse{
		ID:    "chatcmpl-scripted",
		Model: req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: s.StepUsage,
	}, nil
}

func (s *ScriptedLLM) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) (*llm.Usage, error) {
	s.mu.Lock()
	s.requests = append(s.requests, cloneRequest(req))
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return nil, errors.New("scripted llm: no step left")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	usage := s.StepUsage
	s.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}

	chunk := func(delta openai.ChatCompletionStreamChoiceDelta, finish openai.FinishReason) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return callback(&llm.StreamChunk{
			ID:    "chatcmpl-scripted",
			Model: req.Model,
			Choices: []openai.ChatCompletionStreamChoice{{
				Delta:        delta,
				FinishReason: finish,
			}},
		})
	}

	for _, text := range step.Text {
		if err := chunk(openai.ChatCompletionStreamChoiceDelta{Content: text}, ""); err != nil {
			return nil, err
		}
	}
	for i, call := range step.Calls {
		idx := i
		head := openai.ToolCall{
			Index:    &idx,
			ID:       call.ID,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: call.Name},
		}
		if err := chunk(openai.ChatCompletionStreamChoiceDelta{ToolCalls: []openai.ToolCall{head}}, ""); err != nil {
			return nil, err
		}
		// arguments arrive in two fragments
		half := len(call.Args) / 2
		for _, part := range []string{call.Args[:half], call.Args[half:]} {
			frag := openai.ToolCall{Index: &idx, Function: openai.FunctionCall{Arguments: part}}
			if err := chunk(openai.ChatCompletionStreamChoiceDelta{ToolCalls: []openai.ToolCall{frag}}, ""); err != nil {
				return nil, err
			}
		}
	}

	finish := step.Finish
	if finish == "" {
		finish = openai.FinishReasonStop
		if len(step.Calls) > 0 {
			finish = openai.FinishReasonToolCalls
		}
	}
	if err := chunk(openai.ChatCompletionStreamChoiceDelta{}, finish); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *ScriptedLLM) ListModels(ctx context.Context) ([]llm.Model, error) {
	return []llm.Model{{ID: "scripted", Object: "model", OwnedBy: "tests"}}, nil
}

func cloneRequest(req *llm.ChatCompletionRequest) openai.ChatCompletionRequest {
	c := *req
	c.Messages = append([]openai.ChatCompletionMessage(nil), req.Messages...)
	return c
}
