package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveCourse(t *testing.T, h *Handler, body string) string {
	t.Helper()
	c, rec := postJSON(echo.New(), "/api/course/blob", body)
	require.NoError(t, h.SaveCourse(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func getCourse(t *testing.T, h *Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/course/blob"+query, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetCourse(echo.New().NewContext(req, rec)))
	return rec
}

func putCourse(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/course/blob", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	require.NoError(t, h.EditCourse(echo.New().NewContext(req, rec)))
	return rec
}

func TestSaveCourseValidation(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	c, rec := postJSON(echo.New(), "/api/course/blob", `{"title":"Only title"}`)
	if err := h.SaveCourse(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	assert.JSONEq(t, `{"error":"Missing title or content"}`, rec.Body.String())
}

func TestCourseRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	id := saveCourse(t, h, `{"title":"Go","content":{"chapters":[{"title":"Basics","sections":[{"title":"Vars","content":"x"}]}]}}`)

	rec := getCourse(t, h, "?id="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+id+`","title":"Go","content":{"chapters":[{"title":"Basics","sections":[{"title":"Vars","content":"x"}]}]}}`, rec.Body.String())

	rec = getCourse(t, h, "?id="+id+"&view=canonical")
	require.Equal(t, http.StatusOK, rec.Code)
	var course struct {
		Title    string `json:"title"`
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	assert.Equal(t, "Go", course.Title)
	require.Len(t, course.Chapters, 1)
	assert.Equal(t, "Basics", course.Chapters[0].Title)

	rec = getCourse(t, h, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"courses":[{"id":"`+id+`","title":"Go"}]}`, rec.Body.String())
}

func TestGetCourseErrors(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := getCourse(t, h, "?id=does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = getCourse(t, h, "?id=..")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditCourse(t *testing.T) {
	h, deps := newTestHandler(t, nil)
	id := saveCourse(t, h, `{"title":"Go","content":{"chapters":[{"title":"Basics","sections":[{"title":"Vars"}]}]}}`)

	rec := putCourse(t, h, `{"id":"`+id+`","key":"content/chapters/0/sections/0/title","value":"Variables"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = getCourse(t, h, "?id="+id)
	assert.Contains(t, rec.Body.String(), `"Variables"`)

	path, err := deps.svc.CoursePath(id)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rec = putCourse(t, h, `{"id":"`+id+`","key":"content/chapters/3/title","value":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3", body["segment"])
	assert.Contains(t, body["error"], "index out of range")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	rec = putCourse(t, h, `{"id":"missing","key":"title","value":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = putCourse(t, h, `{"id":"`+id+`","key":"title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditCourseNullValue(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	id := saveCourse(t, h, `{"title":"Go","content":{"note":"draft"}}`)

	rec := putCourse(t, h, `{"id":"`+id+`","key":"content/note","value":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = getCourse(t, h, "?id="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+id+`","title":"Go","content":{"note":null}}`, rec.Body.String())

	rec = putCourse(t, h, `{"id":"`+id+`","key":"content/note"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing id, key, or value"}`, rec.Body.String())
}
