package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/xiaot623/learnchat/internal/adapter/llm"
	"github.com/xiaot623/learnchat/internal/domain"
)

// streamCompletion runs one streamed model call and records it on the run.
func (s *Service) streamCompletion(ctx context.Context, runID string, step int, req *llm.ChatCompletionRequest, callback llm.StreamCallback) (*llm.Usage, error) {
	requestID := "llm_" + uuid.New().String()[:8]
	startTime := time.Now()

	s.record(ctx, runID, domain.EventTypeLLMCallStarted, domain.LLMCallStartedPayload{
		RequestID: requestID,
		Model:     req.Model,
		Step:      step,
	})

	var responseModel string
	var finish openai.FinishReason
	var sawToolCalls bool

	wrapperCallback := func(chunk *llm.StreamChunk) error {
		if responseModel == "" && chunk.Model != "" {
			responseModel = chunk.Model
		}
		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				finish = choice.FinishReason
			}
			if len(choice.Delta.ToolCalls) > 0 {
				sawToolCalls = true
			}
		}
		return callback(chunk)
	}

	usage, err := s.llmClient.CreateChatCompletionStream(ctx, req, wrapperCallback)

	if responseModel == "" {
		responseModel = req.Model
	}
	payload := domain.LLMCallDonePayload{
		RequestID:    requestID,
		Model:        responseModel,
		Step:         step,
		FinishReason: mapFinishReason(finish, sawToolCalls),
		LatencyMs:    time.Since(startTime).Milliseconds(),
	}
	if usage != nil {
		payload.PromptTokens = usage.PromptTokens
		payload.CompletionTokens = usage.CompletionTokens
	}
	if err != nil {
		payload.FinishReason = domain.FinishReasonError
		payload.Error = err.Error()
	}
	s.record(ctx, runID, domain.EventTypeLLMCallDone, payload)

	return usage, err
}

// ListModels retrieves the list of available models.
func (s *Service) ListModels(ctx context.Context) ([]llm.Model, error) {
	return s.llmClient.ListModels(ctx)
}

func mapFinishReason(reason openai.FinishReason, hasToolCalls bool) domain.FinishReason {
	if hasToolCalls {
		return domain.FinishReasonToolCalls
	}
	switch reason {
	case openai.FinishReasonStop:
		return domain.FinishReasonStop
	case openai.FinishReasonLength:
		return domain.FinishReasonLength
	case openai.FinishReasonContentFilter:
		return domain.FinishReasonFilter
	default:
		return domain.FinishReasonUnknown
	}
}

func toUsage(u *llm.Usage) domain.Usage {
	if u == nil {
		return domain.Usage{}
	}
	return domain.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens}
}
