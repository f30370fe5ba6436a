package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Client talks to an OpenAI-compatible endpoint (LM Studio, vLLM, LiteLLM, ...).
type Client struct {
	client *openai.Client
}

// NewClient creates a new client. baseURL includes the API version prefix,
// e.g. http://localhost:1234/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{client: openai.NewClientWithConfig(cfg)}
}

// CreateChatCompletion sends a chat completion request (non-streaming).
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false
	req.StreamOptions = nil

	resp, err := c.client.CreateChatCompletion(ctx, *req)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM API returned no choices")
	}
	return &resp, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.client.CreateChatCompletionStream(ctx, *req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer stream.Close()

	var usage *Usage
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return usage, nil
		}
		if err != nil {
			return usage, fmt.Errorf("failed to read stream: %w", wrapError(err))
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if err := callback(&chunk); err != nil {
			return usage, err
		}
	}
}

// ListModels retrieves the list of available models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return list.Models, nil
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("LLM API error [%d]: %s (type: %s): %w", apiErr.HTTPStatusCode, apiErr.Message, apiErr.Type, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("LLM API error [%d]: %w", reqErr.HTTPStatusCode, err)
	}
	return err
}
