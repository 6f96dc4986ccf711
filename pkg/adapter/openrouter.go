package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
)

const defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/embeddings"

// OpenRouterClient generates embeddings through the OpenRouter gateway.
// OpenRouter speaks a plain JSON POST API, so this client uses net/http
// directly instead of a vendor SDK.
type OpenRouterClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	siteURL    string
	appName    string
}

type OpenRouterOption func(*OpenRouterClient)

// WithOpenRouterModel overrides the embedding model name
func WithOpenRouterModel(m string) OpenRouterOption {
	return func(c *OpenRouterClient) {
		c.model = m
	}
}

// WithSiteURL sets the HTTP-Referer header recommended by OpenRouter
func WithSiteURL(url string) OpenRouterOption {
	return func(c *OpenRouterClient) {
		c.siteURL = url
	}
}

// WithAppName sets the X-Title header recommended by OpenRouter
func WithAppName(name string) OpenRouterOption {
	return func(c *OpenRouterClient) {
		c.appName = name
	}
}

// WithEndpoint overrides the embeddings endpoint URL
func WithEndpoint(url string) OpenRouterOption {
	return func(c *OpenRouterClient) {
		c.endpoint = url
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(client *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) {
		c.httpClient = client
	}
}

// NewOpenRouter creates a new OpenRouter embedding client
func NewOpenRouter(apiKey string, opts ...OpenRouterOption) *OpenRouterClient {
	c := &OpenRouterClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoint:   defaultOpenRouterEndpoint,
		apiKey:     apiKey,
		model:      "openai/text-embedding-3-small",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type openRouterRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openRouterResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenRouterClient) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(openRouterRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build embedding request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.appName != "" {
		req.Header.Set("X-Title", c.appName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "OpenRouter embedding request failed",
			goerr.V("model", c.model), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "OpenRouter returned non-success status",
			goerr.V("model", c.model), goerr.V("status", resp.StatusCode))
	}

	var decoded openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "failed to decode OpenRouter response",
			goerr.V("model", c.model), goerr.V("cause", err.Error()))
	}
	if len(decoded.Data) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "OpenRouter response has no data",
			goerr.V("model", c.model))
	}

	return decoded.Data[0].Embedding, nil
}
