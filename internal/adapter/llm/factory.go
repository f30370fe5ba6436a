package llm

import (
	"strings"
	"time"
)

// ModeMock selects the offline MockClient.
const ModeMock = "mock"

// NewLLMClient returns a MockClient when mode is "mock" and an
// OpenAI-compatible Client for any other mode.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration) LLMClient {
	if strings.EqualFold(mode, ModeMock) {
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
