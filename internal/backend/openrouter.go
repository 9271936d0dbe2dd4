package backend

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
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterTimeout = 2 * time.Minute
)

// OpenRouterClient implements types.GenerationClient for the OpenRouter API.
// OpenRouter fronts many model providers behind one chat-completions endpoint,
// so a single client covers the whole roster of hosted models. The credential
// is supplied per call; the client itself holds no key, which lets the
// orchestrator rotate keys across a pool.
type OpenRouterClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	siteURL    string
	siteName   string
}

// NewOpenRouterClient creates a client for one OpenRouter-hosted model.
func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = openRouterTimeout
	}
	return &OpenRouterClient{
		baseURL:  baseURL,
		model:    cfg.Model,
		siteURL:  "https://github.com/specparam",
		siteName: "specparam",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// openRouterMessage is one chat message.
type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openRouterRequest is the chat-completions request body.
type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

// openRouterResponse is the subset of the response body we read.
type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Model returns the model identifier this client dispatches to.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Generate sends the prompt and returns the raw completion text. Failures
// come back as *RequestError so the caller's retry predicate can classify
// them; this method never retries on its own.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt, credential string) (string, error) {
	if credential == "" {
		return "", &RequestError{Kind: KindMalformed, Message: "API key not configured"}
	}

	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	reqBody := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	// OpenRouter-specific attribution headers
	req.Header.Set("HTTP-Referer", c.siteURL)
	req.Header.Set("X-Title", c.siteName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", netError(err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	resp.Body.Close()
	if err != nil {
		return "", netError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(body, &orResp); err != nil {
		return "", &RequestError{Kind: KindMalformed, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}

	if orResp.Error != nil {
		return "", classifyStatus(orResp.Error.Code, orResp.Error.Message)
	}

	if len(orResp.Choices) == 0 {
		return "", &RequestError{Kind: KindEmptyResponse, Message: "no completion returned"}
	}

	return strings.TrimSpace(orResp.Choices[0].Message.Content), nil
}
