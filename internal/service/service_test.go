package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/learnchat/internal/config"
	"github.com/xiaot623/learnchat/internal/domain"
	"github.com/xiaot623/learnchat/internal/repository"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/policy"
	"github.com/xiaot623/learnchat/tests/helpers"
)

type testEnv struct {
	svc     *Service
	llm     *helpers.ScriptedLLM
	store   *repository.SQLiteStore
	courses *repository.CourseStore
	cfg     *config.Config
}

func newTestEnv(t *testing.T, llm *helpers.ScriptedLLM, deps tools.Deps) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.PublicDir = t.TempDir()
	cfg.ChatMaxDuration = 5 * time.Second
	cfg.ToolTimeout = time.Second

	if deps.Temperature == nil {
		deps.Temperature = func() int { return 70 }
	}
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	store := helpers.NewTestSQLiteStore(t)
	courses := helpers.NewTestCourseStore(t)
	svc, err := New(store, courses, llm, tools.NewBuiltinRegistry(deps), cfg, policyEngine, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &testEnv{svc: svc, llm: llm, store: store, courses: courses, cfg: cfg}
}

// recordingStream keeps every frame as a short readable string.
type recordingStream struct {
	mu     sync.Mutex
	runID  string
	frames []string
}

func (r *recordingStream) add(frame string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingStream) Begin(runID string) { r.runID = runID }

func (r *recordingStream) StartStep(messageID string) error { return r.add("f") }

func (r *recordingStream) Text(delta string) error { return r.add("0:" + delta) }

func (r *recordingStream) ToolCall(call domain.ToolInvocation) error {
	return r.add(fmt.Sprintf("9:%s:%s", call.ToolName, call.Args))
}

func (r *recordingStream) ToolResult(id string, result json.RawMessage) error {
	return r.add(fmt.Sprintf("a:%s:%s", id, result))
}

func (r *recordingStream) FinishStep(reason domain.FinishReason, usage domain.Usage, isContinued bool) error {
	return r.add("e:" + string(reason))
}

func (r *recordingStream) Finish(reason domain.FinishReason, usage domain.Usage) error {
	return r.add("d:" + string(reason))
}

func (r *recordingStream) kinds() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.frames))
	for i, f := range r.frames {
		kinds[i] = f[:1]
	}
	return strings.Join(kinds, "")
}

func (r *recordingStream) find(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.frames {
		if strings.HasPrefix(f, prefix) {
			out = append(out, f)
		}
	}
	return out
}
