// Package media provides an HTTP client for the image generation service.
package media

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

const (
	KindImage = "image"
	KindVideo = "video"
)

// Client is an HTTP client for the media generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new media client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Kind   string `json:"kind"`
}

// GenerateResponse describes the produced asset.
type GenerateResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// ErrorResponse represents an error response from the service.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Generate calls POST /generate.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req.Kind == "" {
		req.Kind = KindImage
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("media service error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("media service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}
	if genResp.URL == "" {
		return nil, fmt.Errorf("media service returned no url")
	}
	return &genResp, nil
}
