package domain

import "encoding/json"

// Message is one entry of a conversation as the chat widget sends it.
type Message struct {
	ID              string           `json:"id,omitempty"`
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
	Attachments     []Attachment     `json:"experimental_attachments,omitempty"`
	ToolCallID      string           `json:"toolCallId,omitempty"` // set on role "tool"
}

// Attachment references an uploaded file by URL.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// ToolInvocation records one tool call and, once executed, its result.
type ToolInvocation struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// IsImage reports whether the attachment should be forwarded to the model as an image part.
func (a Attachment) IsImage() bool {
	return len(a.ContentType) >= 6 && a.ContentType[:6] == "image/"
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// StreamTextRequest is the body of POST /api/streamText.
type StreamTextRequest struct {
	Query string `json:"query"`
}

// Usage is the token accounting of one or more model calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Add accumulates another usage record.
func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
}
