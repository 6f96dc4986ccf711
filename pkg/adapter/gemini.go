package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"google.golang.org/genai"
)

// GeminiClient generates embeddings via the Gemini API on Vertex AI
type GeminiClient struct {
	client *genai.Client
	model  string
}

type GeminiOption func(*GeminiClient)

// WithGeminiModel overrides the embedding model name
func WithGeminiModel(m string) GeminiOption {
	return func(g *GeminiClient) {
		g.model = m
	}
}

// NewGemini creates a new Gemini embedding client
func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client: client,
		model:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "Gemini embedding request failed",
			goerr.V("model", g.model), goerr.V("cause", err.Error()))
	}
	if len(resp.Embeddings) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "Gemini embedding response has no data",
			goerr.V("model", g.model))
	}

	values := resp.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}

	return vector, nil
}
