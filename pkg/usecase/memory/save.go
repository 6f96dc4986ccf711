package memory

import (
	"context"

	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
)

// SaveInput contains the caller-supplied fields of a new memory
type SaveInput struct {
	Content           string
	Title             string
	Tags              []string
	Source            string
	GenerateEmbedding bool
}

// Save inserts a new memory, then generates and stores its embedding as a
// best-effort second step. The textual record always wins: an unavailable or
// failing embedding backend never rolls back or fails the save.
func (u *UseCase) Save(ctx context.Context, input SaveInput) (*model.SaveResult, error) {
	mem := &model.Memory{
		Title:   input.Title,
		Content: input.Content,
		Tags:    input.Tags,
		Source:  input.Source,
	}
	if mem.Tags == nil {
		mem.Tags = []string{}
	}
	if err := mem.Validate(); err != nil {
		return nil, err
	}

	id, err := u.repo.PutMemory(ctx, mem)
	if err != nil {
		return nil, err
	}
	mem.ID = id

	result := &model.SaveResult{
		Memory:    mem,
		Embedding: model.EmbeddingSkipped,
	}

	if !input.GenerateEmbedding {
		return result, nil
	}
	if u.embedder == nil {
		logging.From(ctx).Debug("embedding backend not configured, saving without vector",
			"memory_id", id)
		return result, nil
	}

	vector, err := u.embedder.Embed(ctx, mem.Content)
	if err != nil {
		logging.From(ctx).Warn("embedding generation failed, keeping textual memory",
			"memory_id", id, "error", err)
		result.Embedding = model.EmbeddingDegraded
		result.Reason = err.Error()
		return result, nil
	}

	if err := u.repo.PutEmbedding(ctx, id, u.embedModel, vector); err != nil {
		logging.From(ctx).Warn("embedding store failed, keeping textual memory",
			"memory_id", id, "error", err)
		result.Embedding = model.EmbeddingDegraded
		result.Reason = err.Error()
		return result, nil
	}

	result.Embedding = model.EmbeddingGenerated
	return result, nil
}
