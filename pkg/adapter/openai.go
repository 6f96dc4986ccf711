package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient generates embeddings via the OpenAI embeddings API
type OpenAIClient struct {
	client openai.Client
	model  string
}

type OpenAIOption func(*OpenAIClient)

// WithOpenAIModel overrides the embedding model name
func WithOpenAIModel(m string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.model = m
	}
}

// NewOpenAI creates a new OpenAI embedding client
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  "text-embedding-3-small",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "OpenAI embedding request failed",
			goerr.V("model", c.model), goerr.V("cause", err.Error()))
	}
	if len(resp.Data) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingTransport, "OpenAI embedding response has no data",
			goerr.V("model", c.model))
	}

	return resp.Data[0].Embedding, nil
}
