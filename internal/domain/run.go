package domain

import (
	"encoding/json"
	"time"
)

// Run is the audit record of one chat request.
type Run struct {
	RunID     string     `json:"run_id"`
	Endpoint  string     `json:"endpoint"`
	Model     string     `json:"model"`
	Status    RunStatus  `json:"status"`
	Steps     int        `json:"steps"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Event represents a trace event of a run.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RunStartedPayload is the payload of run_started.
type RunStartedPayload struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	Messages int    `json:"messages"`
	MaxSteps int    `json:"max_steps"`
}

// LLMCallStartedPayload is the payload of llm_call_started.
type LLMCallStartedPayload struct {
	RequestID string `json:"request_id"`
	Model     string `json:"model"`
	Step      int    `json:"step"`
}

// LLMCallDonePayload is the payload of llm_call_done.
type LLMCallDonePayload struct {
	RequestID        string       `json:"request_id"`
	Model            string       `json:"model"`
	Step             int          `json:"step"`
	FinishReason     FinishReason `json:"finish_reason,omitempty"`
	LatencyMs        int64        `json:"latency_ms"`
	PromptTokens     int          `json:"prompt_tokens,omitempty"`
	CompletionTokens int          `json:"completion_tokens,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// ToolCallCreatedPayload is the payload of tool_call_created.
type ToolCallCreatedPayload struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Args       json.RawMessage `json:"args,omitempty"`
}

// PolicyDecisionPayload is the payload of policy_decision.
type PolicyDecisionPayload struct {
	ToolCallID string `json:"tool_call_id"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
}

// ToolResultPayload is the payload of tool_result.
type ToolResultPayload struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Result     json.RawMessage `json:"result,omitempty"`
	Failed     bool            `json:"failed,omitempty"`
	LatencyMs  int64           `json:"latency_ms"`
}

// RunDonePayload is the payload of run_done and run_failed.
type RunDonePayload struct {
	Steps        int          `json:"steps"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        Usage        `json:"usage"`
	Error        string       `json:"error,omitempty"`
}
