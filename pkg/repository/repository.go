package repository

import (
	"context"

	"github.com/m-mizutani/localbrain/pkg/model"
)

// Repository defines the interface for memory data persistence. A handle is
// opened per tool invocation and must be released with Close on every path.
type Repository interface {
	// PutMemory appends a new memory row and returns its assigned ID
	PutMemory(ctx context.Context, mem *model.Memory) (model.MemoryID, error)

	// PutEmbedding replaces the embedding row for the given memory
	PutEmbedding(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error

	// SearchByKeyword returns memories whose content or title contains the
	// query substring, newest first
	SearchByKeyword(ctx context.Context, query string, limit int) ([]*model.Memory, error)

	// ListEmbeddings returns all stored vectors for the given embedding
	// model. Order is unspecified; rows with undecodable vectors are skipped.
	ListEmbeddings(ctx context.Context, embedModel string) ([]*model.MemoryEmbedding, error)

	// GetMemoriesByIDs fetches full records for the given ID set. Order is
	// unspecified; the caller re-orders.
	GetMemoriesByIDs(ctx context.Context, ids []model.MemoryID) ([]*model.Memory, error)

	// Close releases the underlying connection
	Close() error
}
