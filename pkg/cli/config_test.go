package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/localbrain/pkg/model"
)

func TestResolveDBPathAbsolute(t *testing.T) {
	path, err := resolveDBPath("/var/lib/localbrain/memory.db")
	gt.NoError(t, err)
	gt.Equal(t, path, "/var/lib/localbrain/memory.db")
}

func TestResolveDBPathRelative(t *testing.T) {
	wd, err := os.Getwd()
	gt.NoError(t, err)

	path, err := resolveDBPath("memory.db")
	gt.NoError(t, err)
	gt.Equal(t, path, filepath.Join(wd, "memory.db"))
}

func TestResolveDBPathFileURL(t *testing.T) {
	path, err := resolveDBPath("file:///tmp/brain.db")
	gt.NoError(t, err)
	gt.Equal(t, path, "/tmp/brain.db")
}

func TestResolveDBPathOpaqueFileURL(t *testing.T) {
	wd, err := os.Getwd()
	gt.NoError(t, err)

	// file: without slashes parses as an opaque URL, not a path
	path, err := resolveDBPath("file:memory.db")
	gt.NoError(t, err)
	gt.Equal(t, path, filepath.Join(wd, "memory.db"))
}

func TestResolveDBPathInvalidURL(t *testing.T) {
	_, err := resolveDBPath("file://\x7f")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSetupDefaults(t *testing.T) {
	cfg := config{}
	gt.NoError(t, cfg.setup())
	gt.Equal(t, cfg.dbLocator, "memory.db")
	gt.Equal(t, cfg.provider, "openai")
	gt.Equal(t, cfg.embedModel, "text-embedding-3-small")
}

func TestSetupProviderDefaultModels(t *testing.T) {
	testCases := map[string]string{
		"openai":     "text-embedding-3-small",
		"openrouter": "openai/text-embedding-3-small",
		"gemini":     "gemini-embedding-001",
	}

	for provider, want := range testCases {
		t.Run(provider, func(t *testing.T) {
			cfg := config{provider: provider}
			gt.NoError(t, cfg.setup())
			gt.Equal(t, cfg.embedModel, want)
		})
	}
}

func TestSetupConfigFileFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	gt.NoError(t, os.WriteFile(path, []byte(`
db: /data/brain.db
embedding_provider: openrouter
embedding_model: custom/model
openrouter_api_key: file-key
`), 0644))

	cfg := config{
		configFile: path,
		provider:   "openai", // flag/env value wins over the file
	}
	gt.NoError(t, cfg.setup())

	gt.Equal(t, cfg.dbLocator, "/data/brain.db")
	gt.Equal(t, cfg.provider, "openai")
	gt.Equal(t, cfg.embedModel, "custom/model")
	gt.Equal(t, cfg.openrouterAPIKey, "file-key")
}

func TestSetupConfigFileMissing(t *testing.T) {
	cfg := config{configFile: filepath.Join(t.TempDir(), "nope.yml")}
	gt.Error(t, cfg.setup())
}

func TestNewEmbedderUnconfigured(t *testing.T) {
	ctx := t.Context()

	cfg := config{provider: "openai"}
	embedder, err := cfg.newEmbedder(ctx)
	gt.NoError(t, err)
	gt.V(t, embedder).Nil()
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	ctx := t.Context()

	cfg := config{provider: "carrier-pigeon"}
	_, err := cfg.newEmbedder(ctx)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestOpenRepositoryOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := config{dbLocator: filepath.Join(dir, "default.db")}

	repo, err := cfg.openRepository("")
	gt.NoError(t, err)
	gt.NoError(t, repo.Close())

	override := filepath.Join(dir, "override.db")
	repo, err = cfg.openRepository(override)
	gt.NoError(t, err)
	gt.NoError(t, repo.Close())

	_, err = os.Stat(filepath.Join(dir, "default.db"))
	gt.NoError(t, err)
	_, err = os.Stat(override)
	gt.NoError(t, err)
}
