// Package selfapi provides an HTTP client for the server's own API, used by
// tools that delegate to other endpoints of this process.
package selfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the learnchat API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new self API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SaveCourseResponse is the response of POST /api/course/blob.
type SaveCourseResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Review calls POST /api/review.
func (c *Client) Review(ctx context.Context, recipe string, ingredients []string) (json.RawMessage, error) {
	return c.post(ctx, "/api/review", map[string]any{"recipe": recipe, "ingredients": ingredients})
}

// GenerateQuote calls POST /api/generateQuote.
func (c *Client) GenerateQuote(ctx context.Context, body any) (json.RawMessage, error) {
	return c.post(ctx, "/api/generateQuote", body)
}

// GenerateTopics calls POST /api/generateTopics.
func (c *Client) GenerateTopics(ctx context.Context, body any) (json.RawMessage, error) {
	return c.post(ctx, "/api/generateTopics", body)
}

// GenerateCourseOutline calls POST /api/generateCourseOutline.
func (c *Client) GenerateCourseOutline(ctx context.Context, body any) (json.RawMessage, error) {
	return c.post(ctx, "/api/generateCourseOutline", body)
}

// ImageVision calls POST /api/imageVision.
func (c *Client) ImageVision(ctx context.Context, imageURL, prompt string) (json.RawMessage, error) {
	return c.post(ctx, "/api/imageVision", map[string]string{"imageUrl": imageURL, "prompt": prompt})
}

// SaveCourse calls POST /api/course/blob.
func (c *Client) SaveCourse(ctx context.Context, title string, content any) (*SaveCourseResponse, error) {
	raw, err := c.post(ctx, "/api/course/blob", map[string]any{"title": title, "content": content})
	if err != nil {
		return nil, err
	}
	var resp SaveCourseResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode save course response: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("save course response carried no id")
	}
	return &resp, nil
}

// CourseURL returns the URL a saved course can be read from.
func (c *Client) CourseURL(id string) string {
	return c.baseURL + "/api/course/blob?id=" + id
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%s returned invalid json", path)
	}
	return json.RawMessage(respBody), nil
}
