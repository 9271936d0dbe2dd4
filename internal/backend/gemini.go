package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements types.GenerationClient for the Gemini API through
// the official genai SDK. The SDK binds a client to one API key at
// construction, so rotated credentials are served from a lazily built
// per-key cache.
type GeminiClient struct {
	model string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiClient creates a client for one Gemini model.
func NewGeminiClient(cfg Config) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		model:   model,
		clients: make(map[string]*genai.Client),
	}
}

// Model returns the model identifier this client dispatches to.
func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) clientFor(ctx context.Context, credential string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[credential]; ok {
		return client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: credential})
	if err != nil {
		return nil, err
	}
	c.clients[credential] = client
	return client, nil
}

// Generate sends the prompt and returns the raw completion text.
func (c *GeminiClient) Generate(ctx context.Context, prompt, credential string) (string, error) {
	if credential == "" {
		return "", &RequestError{Kind: KindMalformed, Message: "API key not configured"}
	}

	client, err := c.clientFor(ctx, credential)
	if err != nil {
		return "", netError(err)
	}

	temperature := float32(0.3)
	result, err := client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: 2000,
		},
	)
	if err != nil {
		return "", classifyGenAIError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", &RequestError{Kind: KindEmptyResponse, Message: "no completion returned"}
	}
	return text, nil
}

// classifyGenAIError maps SDK errors onto the shared failure taxonomy.
func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message)
	}
	return netError(err)
}
