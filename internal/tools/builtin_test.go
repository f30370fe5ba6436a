package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/learnchat/internal/adapter/media"
	"github.com/xiaot623/learnchat/internal/adapter/search"
	"github.com/xiaot623/learnchat/internal/adapter/selfapi"
)

type fakeSearch struct {
	got *search.Request
	err error
}

func (f *fakeSearch) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &search.Response{Query: req.Query, Answer: "42", Results: []search.Result{}}, nil
}

type fakeMedia struct{}

func (fakeMedia) Generate(ctx context.Context, req *media.GenerateRequest) (*media.GenerateResponse, error) {
	return &media.GenerateResponse{URL: "http://media/" + req.Kind + ".png"}, nil
}

func call(t *testing.T, r *Registry, name, args string) (map[string]any, bool) {
	t.Helper()
	out, failed := r.Call(context.Background(), name, json.RawMessage(args))
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("result of %s is not an object: %s", name, out)
	}
	return decoded, failed
}

func TestWeatherTool(t *testing.T) {
	r := NewBuiltinRegistry(Deps{Temperature: func() int { return 71 }})
	out, failed := call(t, r, Weather, `{"location":"Paris"}`)
	assert.False(t, failed)
	assert.Equal(t, "Paris", out["location"])
	assert.Equal(t, float64(71), out["temperature"])
}

func TestWeatherToolDefaultRange(t *testing.T) {
	r := NewBuiltinRegistry(Deps{})
	for i := 0; i < 200; i++ {
		out, _ := call(t, r, Weather, `{"location":"Oslo"}`)
		temp := out["temperature"].(float64)
		if temp < 32 || temp > 90 {
			t.Fatalf("temperature out of range: %v", temp)
		}
	}
}

func TestDateTool(t *testing.T) {
	r := NewBuiltinRegistry(Deps{})
	out, failed := call(t, r, Date, `{"timezone":"UTC"}`)
	assert.False(t, failed)
	assert.Equal(t, "March 6 2025", out["date"])
	assert.Equal(t, "UTC", out["timezone"])
}

func TestGenerateRecipeTool(t *testing.T) {
	r := NewBuiltinRegistry(Deps{})
	out, failed := call(t, r, GenerateRecipe, `{"recipe":"pancakes","ingredients":["flour","milk"]}`)
	assert.False(t, failed)
	assert.Equal(t, "pancakes", out["recipe"])
	assert.Equal(t, map[string]any{"recipe": "pancakes", "ingredients": []any{"flour", "milk"}}, out["response"])
}

func TestTavilySearchTool(t *testing.T) {
	s := &fakeSearch{}
	r := NewBuiltinRegistry(Deps{Search: s})

	out, failed := call(t, r, TavilySearch, `{"query":"golang"}`)
	assert.False(t, failed)
	assert.Equal(t, "42", out["answer"])
	require.NotNil(t, s.got)
	assert.Equal(t, 3, s.got.MaxResults)

	s.err = errors.New("boom")
	out, failed = call(t, r, TavilySearch, `{"query":"golang"}`)
	assert.True(t, failed)
	assert.Contains(t, out["error"], "failed to fetch search results")
}

func TestNetworkToolFailureBecomesErrorResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	r := NewBuiltinRegistry(Deps{Self: selfapi.NewClient(server.URL)})
	out, failed := call(t, r, ReviewRecipe, `{"recipe":"soup","ingredients":["water"]}`)
	assert.True(t, failed)
	assert.Contains(t, out["error"], "502")
}

func TestSaveCourseToBlobTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"id":"c1"}`))
	}))
	defer server.Close()

	r := NewBuiltinRegistry(Deps{Self: selfapi.NewClient(server.URL)})
	out, failed := call(t, r, SaveCourseToBlob, `{"title":"AI","content":{"chapters":[]}}`)
	assert.False(t, failed)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "c1", out["id"])
	assert.Equal(t, server.URL+"/api/course/blob?id=c1", out["url"])

	out, failed = call(t, r, SaveCourseToBlob, `{"title":"AI"}`)
	assert.True(t, failed)
	assert.Equal(t, "title and content are required", out["error"])
}

func TestGenerateImageTool(t *testing.T) {
	r := NewBuiltinRegistry(Deps{Media: fakeMedia{}})
	out, failed := call(t, r, GenerateImage, `{"prompt":"a fox"}`)
	assert.False(t, failed)
	assert.Equal(t, "http://media/image.png", out["url"])

	out, failed = call(t, r, GenerateImage, `{"prompt":"a fox","kind":"video"}`)
	assert.False(t, failed)
	assert.Equal(t, "http://media/video.png", out["url"])
}

func TestToolSetsAreRegistered(t *testing.T) {
	r := NewBuiltinRegistry(Deps{})
	_, err := r.Subset(ChatToolNames...)
	require.NoError(t, err)
	_, err = r.Subset(StreamTextToolNames...)
	require.NoError(t, err)
}
