package service

import (
	"encoding/json"

	"github.com/xiaot623/learnchat/internal/domain"
)

// ChatStream receives the frames of a chat response as they are produced.
type ChatStream interface {
	// Begin is called once the run exists, before any frame.
	Begin(runID string)
	StartStep(messageID string) error
	Text(delta string) error
	ToolCall(call domain.ToolInvocation) error
	ToolResult(toolCallID string, result json.RawMessage) error
	FinishStep(reason domain.FinishReason, usage domain.Usage, isContinued bool) error
	Finish(reason domain.FinishReason, usage domain.Usage) error
}
