package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/domain"
	"github.com/xiaot623/learnchat/internal/service"
)

// HeaderRunID carries the audit run id of a chat response.
const HeaderRunID = "X-Run-Id"

// dataStreamWriter writes chat frames in the chat widget's data stream
// format: one "<code>:<json>\n" line per frame. Nothing is sent until the
// model produces output, so a request that fails early can still answer
// with a JSON error.
type dataStreamWriter struct {
	mu          sync.Mutex
	res         *echo.Response
	started     bool
	pendingStep string
}

var _ service.ChatStream = (*dataStreamWriter)(nil)

func newDataStreamWriter(res *echo.Response) *dataStreamWriter {
	return &dataStreamWriter{res: res}
}

func (w *dataStreamWriter) Begin(runID string) {
	w.res.Header().Set(HeaderRunID, runID)
}

// Started reports whether any frame has been written.
func (w *dataStreamWriter) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// StartStep defers the step frame until the step has something to show.
func (w *dataStreamWriter) StartStep(messageID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingStep = messageID
	return nil
}

func (w *dataStreamWriter) Text(delta string) error {
	return w.frame('0', delta)
}

func (w *dataStreamWriter) ToolCall(call domain.ToolInvocation) error {
	return w.frame('9', map[string]any{
		"toolCallId": call.ToolCallID,
		"toolName":   call.ToolName,
		"args":       call.Args,
	})
}

func (w *dataStreamWriter) ToolResult(toolCallID string, result json.RawMessage) error {
	return w.frame('a', map[string]any{
		"toolCallId": toolCallID,
		"result":     result,
	})
}

func (w *dataStreamWriter) FinishStep(reason domain.FinishReason, usage domain.Usage, isContinued bool) error {
	return w.frame('e', map[string]any{
		"finishReason": reason,
		"usage":        usage,
		"isContinued":  isContinued,
	})
}

func (w *dataStreamWriter) Finish(reason domain.FinishReason, usage domain.Usage) error {
	return w.frame('d', map[string]any{
		"finishReason": reason,
		"usage":        usage,
	})
}

// Error writes an error frame.
func (w *dataStreamWriter) Error(message string) error {
	return w.frame('3', message)
}

func (w *dataStreamWriter) frame(code byte, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %c frame: %w", code, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.open()
	if w.pendingStep != "" && code != '3' {
		step, _ := json.Marshal(map[string]string{"messageId": w.pendingStep})
		w.pendingStep = ""
		if _, err := fmt.Fprintf(w.res, "f:%s\n", step); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.res, "%c:%s\n", code, data); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

func (w *dataStreamWriter) open() {
	if !w.started {
		h := w.res.Header()
		h.Set(echo.HeaderContentType, "text/plain; charset=utf-8")
		h.Set("X-Vercel-AI-Data-Stream", "v1")
		h.Set("Cache-Control", "no-cache")
		w.res.WriteHeader(http.StatusOK)
		w.started = true
	}
}
