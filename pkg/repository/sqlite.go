package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	_ "modernc.org/sqlite"
)

const createMemoriesSQL = `
CREATE TABLE IF NOT EXISTS memories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at TEXT NOT NULL DEFAULT (datetime('now')),
  title TEXT,
  content TEXT NOT NULL,
  tags TEXT,
  source TEXT
);
`

const createEmbeddingsSQL = `
CREATE TABLE IF NOT EXISTS memory_embeddings (
  memory_id INTEGER PRIMARY KEY,
  model TEXT NOT NULL,
  embedding TEXT NOT NULL,
  FOREIGN KEY(memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
`

// createdAtLayout matches SQLite's datetime('now') output
const createdAtLayout = "2006-01-02 15:04:05"

// sqliteRepo implements Repository backed by a local SQLite file
type sqliteRepo struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path and bootstraps the
// schema. Foreign keys are enabled so that deleting a memory cascades to its
// embedding row. WAL mode and a busy timeout let concurrent invocations,
// each holding its own handle on the same file, wait for the write lock
// instead of failing with SQLITE_BUSY.
func New(path string) (Repository, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageUnavailable, "failed to open database",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	for _, stmt := range []string{createMemoriesSQL, createEmbeddingsSQL} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(model.ErrStorageUnavailable, "failed to create schema",
				goerr.V("path", path), goerr.V("cause", err.Error()))
		}
	}

	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) PutMemory(ctx context.Context, mem *model.Memory) (model.MemoryID, error) {
	tags := mem.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode tags")
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO memories (content, title, tags, source) VALUES (?, ?, ?, ?)",
		mem.Content, nullable(mem.Title), string(rawTags), nullable(mem.Source),
	)
	if err != nil {
		return 0, goerr.Wrap(model.ErrStorageIO, "failed to insert memory",
			goerr.V("cause", err.Error()))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, goerr.Wrap(model.ErrStorageIO, "failed to get inserted memory ID",
			goerr.V("cause", err.Error()))
	}

	return model.MemoryID(id), nil
}

func (r *sqliteRepo) PutEmbedding(ctx context.Context, id model.MemoryID, embedModel string, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return goerr.Wrap(err, "failed to encode embedding vector")
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO memory_embeddings (memory_id, model, embedding) VALUES (?, ?, ?)",
		int64(id), embedModel, string(raw),
	)
	if err != nil {
		return goerr.Wrap(model.ErrStorageIO, "failed to upsert embedding",
			goerr.V("memory_id", id), goerr.V("cause", err.Error()))
	}

	return nil
}

func (r *sqliteRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]*model.Memory, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, title, content, tags, source
		FROM memories
		WHERE content LIKE ? OR IFNULL(title, '') LIKE ?
		ORDER BY datetime(created_at) DESC, id DESC
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageIO, "failed to query memories by keyword",
			goerr.V("cause", err.Error()))
	}
	defer rows.Close()

	return scanMemories(ctx, rows)
}

func (r *sqliteRepo) ListEmbeddings(ctx context.Context, embedModel string) ([]*model.MemoryEmbedding, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT memory_id, model, embedding FROM memory_embeddings WHERE model = ?",
		embedModel,
	)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageIO, "failed to query embeddings",
			goerr.V("model", embedModel), goerr.V("cause", err.Error()))
	}
	defer rows.Close()

	var embeddings []*model.MemoryEmbedding
	for rows.Next() {
		var (
			id  int64
			mdl string
			raw string
		)
		if err := rows.Scan(&id, &mdl, &raw); err != nil {
			return nil, goerr.Wrap(model.ErrStorageIO, "failed to scan embedding row",
				goerr.V("cause", err.Error()))
		}

		var vector []float64
		if err := json.Unmarshal([]byte(raw), &vector); err != nil {
			// A corrupted vector degrades that one candidate, not the batch
			logging.From(ctx).Debug("skipping undecodable embedding",
				"memory_id", id, "error", err)
			continue
		}

		embeddings = append(embeddings, &model.MemoryEmbedding{
			MemoryID: model.MemoryID(id),
			Model:    mdl,
			Vector:   vector,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(model.ErrStorageIO, "failed to iterate embedding rows",
			goerr.V("cause", err.Error()))
	}

	return embeddings, nil
}

func (r *sqliteRepo) GetMemoriesByIDs(ctx context.Context, ids []model.MemoryID) ([]*model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, created_at, title, content, tags, source FROM memories WHERE id IN ("+
			strings.Join(placeholders, ",")+")",
		args...,
	)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStorageIO, "failed to query memories by IDs",
			goerr.V("cause", err.Error()))
	}
	defer rows.Close()

	return scanMemories(ctx, rows)
}

func (r *sqliteRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}

func scanMemories(ctx context.Context, rows *sql.Rows) ([]*model.Memory, error) {
	var memories []*model.Memory
	for rows.Next() {
		var (
			id        int64
			createdAt string
			title     sql.NullString
			content   string
			rawTags   sql.NullString
			source    sql.NullString
		)
		if err := rows.Scan(&id, &createdAt, &title, &content, &rawTags, &source); err != nil {
			return nil, goerr.Wrap(model.ErrStorageIO, "failed to scan memory row",
				goerr.V("cause", err.Error()))
		}

		mem := &model.Memory{
			ID:      model.MemoryID(id),
			Title:   title.String,
			Content: content,
			Tags:    decodeTags(ctx, id, rawTags.String),
			Source:  source.String,
		}
		if ts, err := time.Parse(createdAtLayout, createdAt); err == nil {
			mem.CreatedAt = ts.UTC()
		} else {
			logging.From(ctx).Debug("failed to parse created_at, leaving zero time",
				"memory_id", id, "value", createdAt, "error", err)
		}

		memories = append(memories, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(model.ErrStorageIO, "failed to iterate memory rows",
			goerr.V("cause", err.Error()))
	}

	return memories, nil
}

// decodeTags parses the serialized tags column. Corruption of one row's tags
// must not fail the batch, so any decode error yields an empty tag list.
func decodeTags(ctx context.Context, id int64, raw string) []string {
	if raw == "" {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		logging.From(ctx).Debug("failed to decode tags, using empty list",
			"memory_id", id, "error", err)
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
