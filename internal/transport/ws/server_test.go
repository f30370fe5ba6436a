package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/learnchat/internal/config"
	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/service"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/policy"
	"github.com/xiaot623/learnchat/tests/helpers"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Service, *live.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.PublicDir = t.TempDir()

	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc, err := service.New(helpers.NewTestSQLiteStore(t), helpers.NewTestCourseStore(t), helpers.NewScriptedLLM(),
		tools.NewBuiltinRegistry(tools.Deps{}), cfg, policyEngine, nil)
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	registry := live.NewRegistry(10*time.Millisecond, nil)
	t.Cleanup(registry.Close)

	e := echo.New()
	NewHandler(svc, registry, nil).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, svc, registry
}

func TestLiveCourseWebSocket(t *testing.T) {
	srv, svc, registry := newTestServer(t)

	path, err := svc.CoursePath("ws-course")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(`{ "title": "first" }`), 0o644))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live-courses/ws-course/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, `{"title":"first"}`, string(data))

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"title":"second edition"}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"second edition"}`, string(data))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return registry.WatchCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveCourseWebSocketRejectsBadID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/live-courses/.hidden/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
