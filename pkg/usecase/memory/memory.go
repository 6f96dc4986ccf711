package memory

import (
	"github.com/m-mizutani/localbrain/pkg/adapter"
	"github.com/m-mizutani/localbrain/pkg/repository"
)

// UseCase provides memory save and retrieval operations. It is constructed
// per tool invocation around a freshly opened repository handle; the caller
// owns the handle lifecycle.
type UseCase struct {
	repo       repository.Repository
	embedder   adapter.Embedder // nil when no embedding backend is configured
	embedModel string
}

// New creates a new memory UseCase instance
func New(repo repository.Repository, embedder adapter.Embedder, embedModel string) *UseCase {
	return &UseCase{
		repo:       repo,
		embedder:   embedder,
		embedModel: embedModel,
	}
}
