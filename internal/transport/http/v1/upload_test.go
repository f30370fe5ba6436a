package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/learnchat/internal/domain"
)

func multipartRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Host = "learn.example"
	return req
}

func TestUpload(t *testing.T) {
	h, deps := newTestHandler(t, nil)

	req := multipartRequest(t, "image", "cat.png", []byte("png-bytes"))
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	require.NoError(t, h.Upload(echo.New().NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "cat.png", out.Name)
	assert.True(t, strings.HasPrefix(out.ImageURL, "https://learn.example/uploads/"), out.ImageURL)
	assert.True(t, strings.HasSuffix(out.ImageURL, "-cat.png"), out.ImageURL)

	stored := filepath.Join(deps.svc.UploadsDir(), strings.TrimPrefix(out.ImageURL, "https://learn.example/uploads/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestUploadWithoutFile(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	require.NoError(t, h.Upload(echo.New().NewContext(multipartRequest(t, "", "", nil), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file uploaded"}`, rec.Body.String())
}

func TestUploadTooLarge(t *testing.T) {
	h, deps := newTestHandler(t, nil)
	deps.cfg.MaxUploadSize = 8

	rec := httptest.NewRecorder()
	req := multipartRequest(t, "image", "big.png", bytes.Repeat([]byte("x"), 64))
	require.NoError(t, h.Upload(echo.New().NewContext(req, rec)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestExtractValidation(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	c, rec := postJSON(echo.New(), "/api/extract", `{}`)
	require.NoError(t, h.Extract(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"URL is required"}`, rec.Body.String())
}
