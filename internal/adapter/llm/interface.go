// Package llm provides an abstraction for OpenAI-compatible LLM API clients.
package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// The wire types are go-openai's; the aliases keep callers independent of the import.
type (
	ChatCompletionRequest  = openai.ChatCompletionRequest
	ChatCompletionResponse = openai.ChatCompletionResponse
	ChatMessage            = openai.ChatCompletionMessage
	StreamChunk            = openai.ChatCompletionStreamResponse
	ToolCall               = openai.ToolCall
	Usage                  = openai.Usage
	Model                  = openai.Model
)

// StreamCallback is called for each chunk in a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// LLMClient defines the interface for LLM API operations.
type LLMClient interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
