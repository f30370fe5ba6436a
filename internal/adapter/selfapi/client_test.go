package selfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientReview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/review" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["recipe"] != "soup" {
			t.Fatalf("unexpected body: %v", body)
		}
		fmt.Fprint(w, `{"review":"Tasty."}`)
	}))
	defer server.Close()

	raw, err := NewClient(server.URL).Review(context.Background(), "soup", []string{"water"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"review":"Tasty."}`, string(raw))
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Image URL is required"}`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ImageVision(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image URL is required")
	assert.Contains(t, err.Error(), "400")
}

func TestClientSaveCourse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/course/blob" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"id":"abc"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	resp, err := client.SaveCourse(context.Background(), "AI", map[string]any{"chapters": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, server.URL+"/api/course/blob?id=abc", client.CourseURL("abc"))
}
