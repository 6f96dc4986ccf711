package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
)

// MaxSearchLimit caps how many results a single search may request. Larger
// limits are silently reduced so a caller can never force an unbounded scan.
const MaxSearchLimit = 50

// SearchInput contains search parameters
type SearchInput struct {
	Query     string
	Limit     int
	UseVector bool
}

// Search retrieves memories matching the query. Keyword mode matches the
// query as a substring of content or title, newest first. Vector mode ranks
// stored embeddings by cosine similarity against the embedded query; it
// falls back to keyword mode when no embedding backend is configured or the
// backend call fails, and returns an empty result when the backend works but
// no vectors exist for the active model.
func (u *UseCase) Search(ctx context.Context, input SearchInput) ([]*model.Memory, error) {
	if input.Limit <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "limit must be positive",
			goerr.V("limit", input.Limit))
	}
	limit := input.Limit
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	if !input.UseVector {
		return u.repo.SearchByKeyword(ctx, input.Query, limit)
	}

	if u.embedder == nil {
		logging.From(ctx).Debug("embedding backend not configured, falling back to keyword search")
		return u.repo.SearchByKeyword(ctx, input.Query, limit)
	}

	queryVector, err := u.embedder.Embed(ctx, input.Query)
	if err != nil {
		logging.From(ctx).Warn("query embedding failed, falling back to keyword search",
			"error", err)
		return u.repo.SearchByKeyword(ctx, input.Query, limit)
	}

	candidates, err := u.repo.ListEmbeddings(ctx, u.embedModel)
	if err != nil {
		return nil, err
	}
	// No stored vectors for the active model means there is nothing to rank
	// against. This is not the keyword fallback case: resurrecting keyword
	// results here would hide that the model's index is empty.
	if len(candidates) == 0 {
		return []*model.Memory{}, nil
	}

	ids := rankCandidates(queryVector, candidates, limit)
	if len(ids) == 0 {
		return []*model.Memory{}, nil
	}

	memories, err := u.repo.GetMemoriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// The ID-set fetch does not preserve rank order; restore it explicitly.
	// IDs the fetch could not resolve sink to the end.
	order := make(map[model.MemoryID]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}
	sort.SliceStable(memories, func(i, j int) bool {
		oi, ok := order[memories[i].ID]
		if !ok {
			oi = len(order)
		}
		oj, ok := order[memories[j].ID]
		if !ok {
			oj = len(order)
		}
		return oi < oj
	})

	return memories, nil
}
