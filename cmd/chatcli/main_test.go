package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/learnchat/internal/domain"
)

func TestReadStream(t *testing.T) {
	stream := strings.Join([]string{
		`f:{"messageId":"step_1"}`,
		`9:{"toolCallId":"call_1","toolName":"weather","args":{"location":"Paris"}}`,
		`a:{"toolCallId":"call_1","result":{"location":"Paris","temperature":70}}`,
		`e:{"finishReason":"tool-calls","usage":{"promptTokens":1,"completionTokens":1},"isContinued":false}`,
		`f:{"messageId":"step_2"}`,
		`0:"It is "`,
		`0:"70F."`,
		`e:{"finishReason":"stop","usage":{"promptTokens":1,"completionTokens":1},"isContinued":false}`,
		`d:{"finishReason":"stop","usage":{"promptTokens":2,"completionTokens":2}}`,
	}, "\n") + "\n"

	var out strings.Builder
	reply, err := readStream(strings.NewReader(stream), &out)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "It is 70F.", reply.Content)
	require.Len(t, reply.ToolInvocations, 1)
	assert.Equal(t, "weather", reply.ToolInvocations[0].ToolName)
	assert.JSONEq(t, `{"location":"Paris","temperature":70}`, string(reply.ToolInvocations[0].Result))
	assert.Contains(t, out.String(), "[tool weather")
	assert.Contains(t, out.String(), "It is 70F.")
}

func TestReadStreamErrorFrame(t *testing.T) {
	_, err := readStream(strings.NewReader("f:{}\n3:\"model went away\"\n"), &strings.Builder{})
	if err == nil || !strings.Contains(err.Error(), "model went away") {
		t.Fatalf("expected server error, got %v", err)
	}

	_, err = readStream(strings.NewReader("garbage\n"), &strings.Builder{})
	assert.Error(t, err)
}

func TestClientSendKeepsHistory(t *testing.T) {
	var (
		mu       sync.Mutex
		received [][]domain.Message
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		received = append(received, req.Messages)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("f:{}\n0:\"hi\"\nd:{\"finishReason\":\"stop\"}\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	require.NoError(t, client.Send("hello", &strings.Builder{}))
	require.NoError(t, client.Send("again", &strings.Builder{}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	require.Len(t, received[1], 3)
	assert.Equal(t, "hello", received[1][0].Content)
	assert.Equal(t, domain.RoleAssistant, received[1][1].Role)
	assert.Equal(t, "hi", received[1][1].Content)
	assert.Equal(t, "again", received[1][2].Content)
}

func TestClientSendReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"messages are required"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Send("hello", &strings.Builder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages are required")
	assert.Empty(t, client.history)
}

func TestDescribeSnapshot(t *testing.T) {
	line := describeSnapshot("c1", []byte(`{"title":"Go","chapters":[{"title":"One","sections":[{"title":"a"},{"title":"b"}]}]}`))
	assert.Equal(t, `[c1] "Go": 1 chapters, 2 sections`, line)

	assert.Equal(t, "[c1] error: course file is missing", describeSnapshot("c1", []byte(`{"error":"course file is missing"}`)))
	assert.Contains(t, describeSnapshot("c1", []byte(`[1,2]`)), "unreadable update")
}
