package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
)

func TestSaveEmptyContentFails(t *testing.T) {
	ctx := context.Background()

	inserted := false
	repo := &mockRepo{
		putMemory: func(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
			inserted = true
			return 1, nil
		},
	}

	uc := memory.New(repo, nil, "m")
	_, err := uc.Save(ctx, memory.SaveInput{Content: ""})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
	gt.False(t, inserted)
}

func TestSaveWithoutEmbedder(t *testing.T) {
	ctx := context.Background()

	upserted := false
	repo := &mockRepo{
		putMemory: func(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
			return 7, nil
		},
		putEmbedding: func(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
			upserted = true
			return nil
		},
	}

	uc := memory.New(repo, nil, "m")
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           "buy milk",
		Tags:              []string{"errand"},
		GenerateEmbedding: true,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Memory.ID, model.MemoryID(7))
	gt.Equal(t, result.Memory.Tags, []string{"errand"})
	gt.Equal(t, result.Embedding, model.EmbeddingSkipped)
	gt.False(t, upserted)
}

func TestSaveEmbeddingNotRequested(t *testing.T) {
	ctx := context.Background()

	upserted := false
	repo := &mockRepo{
		putEmbedding: func(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
			upserted = true
			return nil
		},
	}

	uc := memory.New(repo, &stubEmbedder{vector: []float64{1, 0}}, "m")
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           "no vector please",
		GenerateEmbedding: false,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Embedding, model.EmbeddingSkipped)
	gt.False(t, upserted)
}

func TestSaveEmbedderFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()

	repo := &mockRepo{
		putMemory: func(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
			return 3, nil
		},
	}

	embedder := &stubEmbedder{err: goerr.Wrap(model.ErrEmbeddingTransport, "backend down")}
	uc := memory.New(repo, embedder, "m")
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           "survives embedding outage",
		GenerateEmbedding: true,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Memory.ID, model.MemoryID(3))
	gt.Equal(t, result.Embedding, model.EmbeddingDegraded)
	gt.V(t, result.Reason).NotEqual("")
}

func TestSaveEmbeddingStoreFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()

	repo := &mockRepo{
		putEmbedding: func(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
			return goerr.Wrap(model.ErrStorageIO, "disk full")
		},
	}

	uc := memory.New(repo, &stubEmbedder{vector: []float64{1, 0}}, "m")
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           "vector write fails",
		GenerateEmbedding: true,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Embedding, model.EmbeddingDegraded)
}

func TestSaveGeneratesEmbedding(t *testing.T) {
	ctx := context.Background()

	var (
		storedID     model.MemoryID
		storedModel  string
		storedVector []float64
	)
	repo := &mockRepo{
		putMemory: func(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
			return 11, nil
		},
		putEmbedding: func(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
			storedID = id
			storedModel = embedModel
			storedVector = vector
			return nil
		},
	}

	uc := memory.New(repo, &stubEmbedder{vector: []float64{0.5, 0.5}}, "text-embedding-3-small")
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           "remember me",
		GenerateEmbedding: true,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Embedding, model.EmbeddingGenerated)
	gt.Equal(t, storedID, model.MemoryID(11))
	gt.Equal(t, storedModel, "text-embedding-3-small")
	gt.Equal(t, storedVector, []float64{0.5, 0.5})
}
