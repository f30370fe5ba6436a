package v1

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/learnchat/internal/config"
	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/service"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/policy"
	"github.com/xiaot623/learnchat/tests/helpers"
)

type testDeps struct {
	svc      *service.Service
	cfg      *config.Config
	registry *live.Registry
}

func newTestHandler(t *testing.T, llm *helpers.ScriptedLLM) (*Handler, testDeps) {
	t.Helper()
	if llm == nil {
		llm = helpers.NewScriptedLLM()
	}
	cfg := config.Default()
	cfg.PublicDir = t.TempDir()
	cfg.ChatMaxDuration = 5 * time.Second
	cfg.ToolTimeout = time.Second

	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	registry := tools.NewBuiltinRegistry(tools.Deps{Temperature: func() int { return 70 }})
	svc, err := service.New(helpers.NewTestSQLiteStore(t), helpers.NewTestCourseStore(t), llm, registry, cfg, policyEngine, nil)
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}

	liveRegistry := live.NewRegistry(10*time.Millisecond, nil)
	t.Cleanup(liveRegistry.Close)

	return NewHandler(svc, liveRegistry, nil), testDeps{svc: svc, cfg: cfg, registry: liveRegistry}
}
