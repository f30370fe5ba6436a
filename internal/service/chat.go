package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/learnchat/internal/adapter/llm"
	"github.com/xiaot623/learnchat/internal/domain"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/policy"
)

const chatSystemPrompt = `You are a helpful assistant. 
    1) You may call the "weather" tool if needed. 
    2) When you do, you must incorporate the tool's result into your final response for the user. 
    3) Do not simply return the tool result; respond with a helpful explanation.
    4) Always output in markdown format.
    5) If making a list, add a title above instead of inside. You cannot use headings or other tags like p and strong inside lists.`

const streamTextSystemPrompt = "You are a helpful English-speaking assistant named Jarvis. You may call tools if needed to answer the user question."

const (
	EndpointChat       = "chat"
	EndpointStreamText = "streamText"
)

type chatOptions struct {
	endpoint    string
	model       string
	system      string
	tools       *tools.Registry
	maxSteps    int
	temperature float32
}

// Chat answers a conversation, calling tools as the model requests, and
// streams the response into stream.
func (s *Service) Chat(ctx context.Context, req *domain.ChatRequest, stream ChatStream) error {
	if req == nil || len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages are required", domain.ErrInvalidRequest)
	}
	return s.runChat(ctx, req.Messages, chatOptions{
		endpoint:    EndpointChat,
		model:       s.config.Models.Chat,
		system:      chatSystemPrompt,
		tools:       s.chatTools,
		maxSteps:    s.config.ChatMaxSteps,
		temperature: 0.5,
	}, stream)
}

// StreamText answers a single query with the smaller tool set.
func (s *Service) StreamText(ctx context.Context, req *domain.StreamTextRequest, stream ChatStream) error {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	messages := []domain.Message{{Role: domain.RoleUser, Content: req.Query}}
	return s.runChat(ctx, messages, chatOptions{
		endpoint: EndpointStreamText,
		model:    s.config.Models.Chat,
		system:   streamTextSystemPrompt,
		tools:    s.streamTextTools,
		maxSteps: s.config.StreamTextMaxSteps,
	}, stream)
}

func (s *Service) runChat(ctx context.Context, messages []domain.Message, opts chatOptions, stream ChatStream) error {
	history, err := s.buildHistory(opts.system, messages)
	if err != nil {
		return err
	}
	if opts.maxSteps < 1 {
		opts.maxSteps = 1
	}

	run := &domain.Run{
		RunID:     "run_" + uuid.New().String()[:8],
		Endpoint:  opts.endpoint,
		Model:     opts.model,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	stream.Begin(run.RunID)
	s.record(ctx, run.RunID, domain.EventTypeRunStarted, domain.RunStartedPayload{
		Endpoint: opts.endpoint,
		Model:    opts.model,
		Messages: len(messages),
		MaxSteps: opts.maxSteps,
	})

	if s.config.ChatMaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ChatMaxDuration)
		defer cancel()
	}

	loop := &chatLoop{
		svc:     s,
		runID:   run.RunID,
		opts:    opts,
		stream:  stream,
		history: history,
		log:     s.logger.With("runID", run.RunID, "endpoint", opts.endpoint),
	}
	err = loop.run(ctx)
	s.finishRun(ctx, loop, err)
	return err
}

func (s *Service) finishRun(ctx context.Context, loop *chatLoop, runErr error) {
	ctx = context.WithoutCancel(ctx)
	status := domain.RunStatusDone
	eventType := domain.EventTypeRunDone
	payload := domain.RunDonePayload{
		Steps:        loop.step,
		FinishReason: loop.finish,
		Usage:        loop.usage,
	}
	errMsg := ""
	if runErr != nil {
		status = domain.RunStatusFailed
		eventType = domain.EventTypeRunFailed
		errMsg = runErr.Error()
		payload.FinishReason = domain.FinishReasonError
		payload.Error = errMsg
		loop.log.Error("chat run failed", "steps", loop.step, "error", runErr)
	} else {
		loop.log.Info("chat run done", "steps", loop.step, "finishReason", loop.finish,
			"promptTokens", loop.usage.PromptTokens, "completionTokens", loop.usage.CompletionTokens)
	}
	if err := s.store.UpdateRunCompleted(ctx, loop.runID, status, loop.step, errMsg); err != nil {
		loop.log.Warn("failed to complete run", "error", err)
	}
	s.record(ctx, loop.runID, eventType, payload)
}

type loopState int

const (
	stateGenerating loopState = iota
	stateAwaitingToolResults
	stateDone
)

// chatLoop drives one request through generate -> run tools -> resume until
// the model answers without tool calls or the step budget is spent.
type chatLoop struct {
	svc     *Service
	runID   string
	opts    chatOptions
	stream  ChatStream
	history []openai.ChatCompletionMessage
	log     *logger.Logger

	step   int
	finish domain.FinishReason
	usage  domain.Usage
}

type toolCall struct {
	ID      string
	Name    string
	Args    json.RawMessage
	ArgsErr error
}

type stepOutput struct {
	calls  []toolCall
	finish domain.FinishReason
	usage  domain.Usage
}

func (l *chatLoop) run(ctx context.Context) error {
	state := stateGenerating
	var current stepOutput

	for state != stateDone {
		switch state {
		case stateGenerating:
			if l.step >= l.opts.maxSteps {
				state = stateDone
				continue
			}
			l.step++
			out, err := l.generate(ctx)
			if err != nil {
				return err
			}
			l.usage.Add(out.usage)
			l.finish = out.finish
			if len(out.calls) == 0 {
				if err := l.stream.FinishStep(out.finish, out.usage, false); err != nil {
					return err
				}
				state = stateDone
				continue
			}
			current = out
			state = stateAwaitingToolResults

		case stateAwaitingToolResults:
			if err := l.resolveTools(ctx, current.calls); err != nil {
				return err
			}
			if err := l.stream.FinishStep(current.finish, current.usage, false); err != nil {
				return err
			}
			current = stepOutput{}
			state = stateGenerating
		}
	}

	return l.stream.Finish(l.finish, l.usage)
}

// generate streams one model call. Text is forwarded as it arrives; tool
// call fragments are buffered until the call completes.
func (l *chatLoop) generate(ctx context.Context) (stepOutput, error) {
	if err := l.stream.StartStep("msg-" + uuid.New().String()); err != nil {
		return stepOutput{}, err
	}

	req := &llm.ChatCompletionRequest{
		Model:       l.opts.model,
		Messages:    l.history,
		Temperature: l.opts.temperature,
	}
	if defs := l.opts.tools.Definitions(); len(defs) > 0 {
		req.Tools = defs
	}

	var text strings.Builder
	var finish openai.FinishReason
	buf := newToolCallBuffer()

	usage, err := l.svc.streamCompletion(ctx, l.runID, l.step, req, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Index != 0 {
				continue
			}
			if choice.Delta.Content != "" {
				text.WriteString(choice.Delta.Content)
				if err := l.stream.Text(choice.Delta.Content); err != nil {
					return err
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				buf.add(tc)
			}
			if choice.FinishReason != "" {
				finish = choice.FinishReason
			}
		}
		return nil
	})
	if err != nil {
		return stepOutput{}, fmt.Errorf("model call failed at step %d: %w", l.step, err)
	}

	calls := buf.complete()
	assistant := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: text.String(),
	}
	for _, call := range calls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: string(call.Args),
			},
		})
	}
	l.history = append(l.history, assistant)

	return stepOutput{
		calls:  calls,
		finish: mapFinishReason(finish, len(calls) > 0),
		usage:  toUsage(usage),
	}, nil
}

// resolveTools announces every call, runs them concurrently, then emits the
// results in call order and feeds them back into the conversation.
func (l *chatLoop) resolveTools(ctx context.Context, calls []toolCall) error {
	for _, call := range calls {
		if err := l.stream.ToolCall(domain.ToolInvocation{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Args:       call.Args,
		}); err != nil {
			return err
		}
	}

	results := make([]json.RawMessage, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = l.execute(gctx, call)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("tool execution interrupted at step %d: %w", l.step, err)
	}

	for i, call := range calls {
		if err := l.stream.ToolResult(call.ID, results[i]); err != nil {
			return err
		}
		l.history = append(l.history, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    string(results[i]),
		})
	}
	return nil
}

// execute runs a single tool call. It never fails: problems become an
// {"error": ...} result the model can read.
func (l *chatLoop) execute(ctx context.Context, call toolCall) json.RawMessage {
	s := l.svc
	start := time.Now()
	s.record(ctx, l.runID, domain.EventTypeToolCallCreated, domain.ToolCallCreatedPayload{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Args:       call.Args,
	})

	var result json.RawMessage
	var failed bool
	switch {
	case call.ArgsErr != nil:
		result, failed = tools.ErrorResult(call.ArgsErr.Error()), true
	default:
		if blocked, reason := l.checkPolicy(ctx, call); blocked {
			result, failed = tools.ErrorResult("tool call blocked by policy: "+reason), true
			break
		}
		tctx := ctx
		if s.config.ToolTimeout > 0 {
			var cancel context.CancelFunc
			tctx, cancel = context.WithTimeout(ctx, s.config.ToolTimeout)
			defer cancel()
		}
		result, failed = l.opts.tools.Call(tctx, call.Name, call.Args)
	}

	latency := time.Since(start).Milliseconds()
	if failed {
		l.log.Warn("tool call failed", "toolCallID", call.ID, "tool", call.Name, "result", string(result), "latencyMs", latency)
	}
	s.record(ctx, l.runID, domain.EventTypeToolResult, domain.ToolResultPayload{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     result,
		Failed:     failed,
		LatencyMs:  latency,
	})
	return result
}

func (l *chatLoop) checkPolicy(ctx context.Context, call toolCall) (bool, string) {
	engine := l.svc.policyEngine
	if engine == nil {
		return false, ""
	}
	var args map[string]any
	_ = json.Unmarshal(call.Args, &args)

	decision, reason, err := engine.Evaluate(ctx, policy.Input{
		ToolName: call.Name,
		Args:     args,
		Endpoint: l.opts.endpoint,
	})
	if err != nil {
		l.log.Warn("policy evaluation failed", "tool", call.Name, "error", err)
		decision, reason = policy.DecisionBlock, "policy evaluation failed"
	}
	l.svc.record(ctx, l.runID, domain.EventTypePolicyDecision, domain.PolicyDecisionPayload{
		ToolCallID: call.ID,
		Decision:   decision,
		Reason:     reason,
	})
	if decision == policy.DecisionAllow {
		return false, ""
	}
	if reason == "" {
		reason = decision
	}
	return true, reason
}

// toolCallBuffer assembles streamed tool call fragments.
type toolCallBuffer struct {
	calls   []*pendingCall
	byIndex map[int]*pendingCall
}

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

func newToolCallBuffer() *toolCallBuffer {
	return &toolCallBuffer{byIndex: make(map[int]*pendingCall)}
}

func (b *toolCallBuffer) add(tc openai.ToolCall) {
	var p *pendingCall
	switch {
	case tc.Index != nil:
		p = b.byIndex[*tc.Index]
		if p == nil {
			p = &pendingCall{}
			b.byIndex[*tc.Index] = p
			b.calls = append(b.calls, p)
		}
	case tc.ID != "" || len(b.calls) == 0:
		p = &pendingCall{}
		b.calls = append(b.calls, p)
	default:
		p = b.calls[len(b.calls)-1]
	}

	if tc.ID != "" {
		p.id = tc.ID
	}
	if tc.Function.Name != "" && p.name == "" {
		p.name = tc.Function.Name
	}
	p.args.WriteString(tc.Function.Arguments)
}

func (b *toolCallBuffer) complete() []toolCall {
	calls := make([]toolCall, 0, len(b.calls))
	for _, p := range b.calls {
		call := toolCall{ID: p.id, Name: p.name}
		if call.ID == "" {
			call.ID = "call_" + uuid.New().String()[:8]
		}
		raw := strings.TrimSpace(p.args.String())
		switch {
		case raw == "":
			call.Args = json.RawMessage(`{}`)
		case !json.Valid([]byte(raw)):
			call.Args = json.RawMessage(`{}`)
			call.ArgsErr = fmt.Errorf("invalid tool arguments for %s: not valid JSON", call.Name)
		default:
			call.Args = json.RawMessage(raw)
		}
		calls = append(calls, call)
	}
	return calls
}

// buildHistory converts the widget's messages into model messages, prefixed
// by the system prompt.
func (s *Service) buildHistory(system string, messages []domain.Message) ([]openai.ChatCompletionMessage, error) {
	history := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}

	for i, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			history = append(history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case domain.RoleUser:
			history = append(history, s.userMessage(m))
		case domain.RoleAssistant:
			history = append(history, assistantMessages(m)...)
		case domain.RoleTool:
			if m.ToolCallID == "" {
				return nil, fmt.Errorf("%w: tool message %d has no toolCallId", domain.ErrInvalidRequest, i)
			}
			history = append(history, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: m.ToolCallID,
				Content:    m.Content,
			})
		default:
			return nil, fmt.Errorf("%w: message %d has unsupported role %q", domain.ErrInvalidRequest, i, m.Role)
		}
	}
	return history, nil
}

func (s *Service) userMessage(m domain.Message) openai.ChatCompletionMessage {
	var images []domain.Attachment
	for _, att := range m.Attachments {
		if att.IsImage() {
			images = append(images, att)
		}
	}
	if len(images) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content}
	}

	var parts []openai.ChatMessagePart
	if m.Content != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Content})
	}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    s.modelImageURL(img.URL),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

// assistantMessages replays an assistant turn. Completed tool invocations
// become tool calls followed by their results; unfinished ones are dropped.
func assistantMessages(m domain.Message) []openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
	var results []openai.ChatCompletionMessage
	for _, inv := range m.ToolInvocations {
		if len(inv.Result) == 0 {
			continue
		}
		args := inv.Args
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:       inv.ToolCallID,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: inv.ToolName, Arguments: string(args)},
		})
		results = append(results, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: inv.ToolCallID,
			Name:       inv.ToolName,
			Content:    string(inv.Result),
		})
	}
	return append([]openai.ChatCompletionMessage{msg}, results...)
}
