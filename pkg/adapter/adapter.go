package adapter

import "context"

// Embedder maps text to a fixed-length vector using a remote embedding
// backend. A nil Embedder means no backend is configured: callers treat that
// as "unavailable" and degrade (skip the vector on save, fall back to keyword
// search). A non-nil error from Embed is a transport failure, never a
// configuration problem.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
