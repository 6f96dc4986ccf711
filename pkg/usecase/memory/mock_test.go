package memory_test

import (
	"context"

	"github.com/m-mizutani/localbrain/pkg/model"
)

// mockRepo implements repository.Repository with overridable function fields
type mockRepo struct {
	putMemory     func(ctx context.Context, mem *model.Memory) (model.MemoryID, error)
	putEmbedding  func(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error
	searchKeyword func(ctx context.Context, query string, limit int) ([]*model.Memory, error)
	listEmbed     func(ctx context.Context, embedModel string) ([]*model.MemoryEmbedding, error)
	getByIDs      func(ctx context.Context, ids []model.MemoryID) ([]*model.Memory, error)
}

func (m *mockRepo) PutMemory(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
	if m.putMemory == nil {
		return 1, nil
	}
	return m.putMemory(ctx, mem)
}

func (m *mockRepo) PutEmbedding(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
	if m.putEmbedding == nil {
		return nil
	}
	return m.putEmbedding(ctx, id, embedModel, vector)
}

func (m *mockRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]*model.Memory, error) {
	if m.searchKeyword == nil {
		return nil, nil
	}
	return m.searchKeyword(ctx, query, limit)
}

func (m *mockRepo) ListEmbeddings(ctx context.Context, embedModel string) ([]*model.MemoryEmbedding, error) {
	if m.listEmbed == nil {
		return nil, nil
	}
	return m.listEmbed(ctx, embedModel)
}

func (m *mockRepo) GetMemoriesByIDs(ctx context.Context, ids []model.MemoryID) ([]*model.Memory, error) {
	if m.getByIDs == nil {
		return nil, nil
	}
	return m.getByIDs(ctx, ids)
}

func (m *mockRepo) Close() error { return nil }

// stubEmbedder returns a fixed vector or error for every call
type stubEmbedder struct {
	vector []float64
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}
