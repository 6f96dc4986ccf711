package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/adapter"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/repository"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RepoOpener opens a repository for one tool invocation. The dbURL argument
// is the per-call override from the tool parameters; an empty string selects
// the configured default database.
type RepoOpener func(dbURL string) (repository.Repository, error)

// Server exposes memory tools over the Model Context Protocol
type Server struct {
	server     *mcp.Server
	openRepo   RepoOpener
	embedder   adapter.Embedder
	embedModel string
}

// New creates an MCP server with save_memory and fetch_memories tools
func New(openRepo RepoOpener, embedder adapter.Embedder, embedModel string) *Server {
	s := &Server{
		openRepo:   openRepo,
		embedder:   embedder,
		embedModel: embedModel,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "localbrain",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_memory",
		Description: "Save a memory snippet into a local database",
	}, s.saveMemory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_memories",
		Description: "Search memories by text query, ordered by recency (keyword mode) or semantic similarity (vector mode)",
	}, s.fetchMemories)

	s.server = server
	return s
}

// Run serves MCP over stdio until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP stdio server failed")
	}
	return nil
}

// Handler returns an http.Handler serving MCP over streamable HTTP
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves MCP over streamable HTTP on addr until the context is
// cancelled
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logging.From(ctx).Info("MCP server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down MCP HTTP server")
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
		}
		return nil
	}
}

type saveMemoryParams struct {
	Content           string   `json:"content" jsonschema:"Main text content of the memory"`
	Title             string   `json:"title,omitempty" jsonschema:"Optional short title"`
	Tags              []string `json:"tags,omitempty" jsonschema:"Optional list of tag strings"`
	Source            string   `json:"source,omitempty" jsonschema:"Optional identifier for where this memory came from"`
	DBURL             string   `json:"dbUrl,omitempty" jsonschema:"Optional database URL or path (file: URL or filesystem path)"`
	GenerateEmbedding *bool    `json:"generate_embedding,omitempty" jsonschema:"Whether to generate and store an embedding (default true)"`
}

type savedMemory struct {
	ID      model.MemoryID `json:"id"`
	Title   string         `json:"title,omitempty"`
	Content string         `json:"content"`
	Tags    []string       `json:"tags"`
	Source  string         `json:"source,omitempty"`
}

func (s *Server) saveMemory(ctx context.Context, req *mcp.CallToolRequest, params *saveMemoryParams) (*mcp.CallToolResult, any, error) {
	ctx = s.requestContext(ctx, "save_memory")

	repo, err := s.openRepo(params.DBURL)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close repository", "error", err)
		}
	}()

	uc := memory.New(repo, s.embedder, s.embedModel)
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           params.Content,
		Title:             params.Title,
		Tags:              params.Tags,
		Source:            params.Source,
		GenerateEmbedding: params.GenerateEmbedding == nil || *params.GenerateEmbedding,
	})
	if err != nil {
		return nil, nil, err
	}

	if result.Embedding == model.EmbeddingDegraded {
		logging.From(ctx).Warn("memory saved without embedding",
			"memory_id", result.Memory.ID, "reason", result.Reason)
	}

	return textResult(savedMemory{
		ID:      result.Memory.ID,
		Title:   result.Memory.Title,
		Content: result.Memory.Content,
		Tags:    result.Memory.Tags,
		Source:  result.Memory.Source,
	})
}

type fetchMemoriesParams struct {
	Query           string `json:"query" jsonschema:"Text to search for"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default 10, max 50)"`
	DBURL           string `json:"dbUrl,omitempty" jsonschema:"Optional database URL or path (file: URL or filesystem path)"`
	UseVectorSearch bool   `json:"use_vector_search,omitempty" jsonschema:"If true, use embedding-based similarity search"`
}

type fetchedMemory struct {
	ID        model.MemoryID `json:"id"`
	CreatedAt string         `json:"created_at"`
	Title     string         `json:"title,omitempty"`
	Content   string         `json:"content"`
	Tags      []string       `json:"tags"`
	Source    string         `json:"source,omitempty"`
}

func (s *Server) fetchMemories(ctx context.Context, req *mcp.CallToolRequest, params *fetchMemoriesParams) (*mcp.CallToolResult, any, error) {
	ctx = s.requestContext(ctx, "fetch_memories")

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	repo, err := s.openRepo(params.DBURL)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close repository", "error", err)
		}
	}()

	uc := memory.New(repo, s.embedder, s.embedModel)
	memories, err := uc.Search(ctx, memory.SearchInput{
		Query:     params.Query,
		Limit:     limit,
		UseVector: params.UseVectorSearch,
	})
	if err != nil {
		return nil, nil, err
	}

	results := make([]fetchedMemory, len(memories))
	for i, mem := range memories {
		results[i] = fetchedMemory{
			ID:        mem.ID,
			CreatedAt: mem.CreatedAt.Format(time.RFC3339),
			Title:     mem.Title,
			Content:   mem.Content,
			Tags:      mem.Tags,
			Source:    mem.Source,
		}
	}

	return textResult(results)
}

// requestContext attaches a request-scoped logger so every log line from one
// tool call carries the same request ID
func (s *Server) requestContext(ctx context.Context, tool string) context.Context {
	logger := logging.From(ctx).With("request_id", uuid.NewString(), "tool", tool)
	return logging.With(ctx, logger)
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to encode tool result")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil, nil
}
