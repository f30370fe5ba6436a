// Package domain defines the core domain models for learnchat.
package domain

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// RunStatus represents the status of a chat run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED"
)

// EventType represents the type of an event.
type EventType string

const (
	EventTypeRunStarted EventType = "run_started"
	EventTypeRunDone    EventType = "run_done"
	EventTypeRunFailed  EventType = "run_failed"
	// LLM call events
	EventTypeLLMCallStarted EventType = "llm_call_started"
	EventTypeLLMCallDone    EventType = "llm_call_done"

	// Tool events
	EventTypeToolCallCreated EventType = "tool_call_created"
	EventTypePolicyDecision  EventType = "policy_decision"
	EventTypeToolResult      EventType = "tool_result"
)

// FinishReason explains why a generation step ended.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool-calls"
	FinishReasonFilter    FinishReason = "content-filter"
	FinishReasonError     FinishReason = "error"
	FinishReasonUnknown   FinishReason = "unknown"
)
