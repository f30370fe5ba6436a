package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// MockClient is an offline LLMClient used with LLM_MODE=mock.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletion returns a mock response. Structured requests get a
// sample document shaped by the requested JSON schema.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := m.generateMockResponse(req)
	if req.ResponseFormat != nil {
		content = m.generateMockObject(req.ResponseFormat)
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: content,
				},
				FinishReason: openai.FinishReasonStop,
			},
		},
		Usage: m.usage(req, content),
	}, nil
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	content := m.generateMockResponse(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	chunks := m.splitIntoChunks(content, 10)
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var finishReason openai.FinishReason
		if i == len(chunks)-1 {
			finishReason = openai.FinishReasonStop
		}

		streamChunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []openai.ChatCompletionStreamChoice{
				{
					Index: 0,
					Delta: openai.ChatCompletionStreamChoiceDelta{
						Role:    openai.ChatMessageRoleAssistant,
						Content: chunk,
					},
					FinishReason: finishReason,
				},
			},
		}

		if err := callback(streamChunk); err != nil {
			return nil, err
		}
	}

	usage := m.usage(req, content)
	return &usage, nil
}

// ListModels returns a list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{
		{ID: "mock-chat", Object: "model", CreatedAt: time.Now().Unix(), OwnedBy: "mock"},
		{ID: "mock-vision", Object: "model", CreatedAt: time.Now().Unix(), OwnedBy: "mock"},
	}, nil
}

// generateMockResponse generates a mock response based on the request.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	if len(req.Tools) > 0 {
		return fmt.Sprintf("[MOCK] I would call tool '%s' to help with this request.", req.Tools[0].Function.Name)
	}

	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == openai.ChatMessageRoleUser {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}

	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

func (m *MockClient) usage(req *ChatCompletionRequest, content string) Usage {
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(msg.Content) / 4
	}
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: len(content) / 4,
		TotalTokens:      prompt + len(content)/4,
	}
}

// generateMockObject builds a JSON document that satisfies the schema of a
// json_schema response format, or "{}" when there is none.
func (m *MockClient) generateMockObject(format *openai.ChatCompletionResponseFormat) string {
	if format.JSONSchema == nil || format.JSONSchema.Schema == nil {
		return "{}"
	}
	raw, err := json.Marshal(format.JSONSchema.Schema)
	if err != nil {
		return "{}"
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return "{}"
	}
	defs, _ := schema["$defs"].(map[string]any)
	out, err := json.Marshal(sampleFor("value", schema, defs))
	if err != nil {
		return "{}"
	}
	return string(out)
}

func sampleFor(name string, schema, defs map[string]any) any {
	if ref, ok := schema["$ref"].(string); ok {
		target, _ := defs[strings.TrimPrefix(ref, "#/$defs/")].(map[string]any)
		return sampleFor(name, target, defs)
	}
	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}
	switch schema["type"] {
	case "object":
		props, _ := schema["properties"].(map[string]any)
		obj := make(map[string]any, len(props))
		for key, prop := range props {
			propSchema, _ := prop.(map[string]any)
			obj[key] = sampleFor(key, propSchema, defs)
		}
		return obj
	case "array":
		items, _ := schema["items"].(map[string]any)
		return []any{sampleFor(name, items, defs)}
	case "integer", "number":
		return 0
	case "boolean":
		return false
	default:
		return "[MOCK] " + name
	}
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func (m *MockClient) splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}

	var chunks []string
	for i := 0; i < len(s); i += chunkSize {
		end := i + chunkSize
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
