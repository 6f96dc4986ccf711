package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type MemoryID int64

// Memory is a stored text snippet. ID and CreatedAt are assigned by the
// repository on insert and never change afterwards.
type Memory struct {
	ID        MemoryID
	CreatedAt time.Time
	Title     string
	Content   string
	Tags      []string
	Source    string
}

// Validate checks the caller-supplied fields of a memory before insert
func (m *Memory) Validate() error {
	if m.Content == "" {
		return goerr.Wrap(ErrInvalidArgument, "content is empty")
	}
	return nil
}

// MemoryEmbedding is a stored vector for one memory. A memory holds at most
// one embedding at a time; Model records which embedding model produced the
// vector so that vectors from different models are never compared.
type MemoryEmbedding struct {
	MemoryID MemoryID
	Model    string
	Vector   []float64
}

type EmbeddingStatus string

const (
	// EmbeddingGenerated means a vector was stored alongside the memory.
	EmbeddingGenerated EmbeddingStatus = "generated"
	// EmbeddingSkipped means embedding was not requested or no provider is configured.
	EmbeddingSkipped EmbeddingStatus = "skipped"
	// EmbeddingDegraded means the provider failed; the memory was saved without a vector.
	EmbeddingDegraded EmbeddingStatus = "degraded"
)

// SaveResult reports a completed save. The textual memory always wins:
// Embedding describes what happened to the best-effort vector write.
type SaveResult struct {
	Memory    *Memory
	Embedding EmbeddingStatus
	Reason    string // set when Embedding is EmbeddingDegraded
}
