package cli

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/adapter"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/repository"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values resolved once at process start
type config struct {
	configFile string
	dbLocator  string

	provider   string
	embedModel string

	openaiAPIKey      string
	openrouterAPIKey  string
	openrouterSiteURL string
	openrouterAppName string
	geminiProject     string
	geminiLocation    string

	logLevel  string
	logFormat string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file providing defaults",
			Sources:     cli.EnvVars("LOCALBRAIN_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Database locator (filesystem path or file: URL)",
			Sources:     cli.EnvVars("LOCALBRAIN_DB", "MEMORY_DB_URL"),
			Destination: &cfg.dbLocator,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Sources:     cli.EnvVars("LOCALBRAIN_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console or json)",
			Sources:     cli.EnvVars("LOCALBRAIN_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// embeddingFlags returns flags for embedding backend configuration with
// destination config
func embeddingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (openai, gemini, openrouter)",
			Sources:     cli.EnvVars("EMBEDDING_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Sources:     cli.EnvVars("EMBEDDING_MODEL"),
			Destination: &cfg.embedModel,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openrouter-api-key",
			Usage:       "OpenRouter API key",
			Sources:     cli.EnvVars("OPENROUTER_API_KEY"),
			Destination: &cfg.openrouterAPIKey,
		},
		&cli.StringFlag{
			Name:        "openrouter-site-url",
			Usage:       "Site URL sent as HTTP-Referer to OpenRouter",
			Sources:     cli.EnvVars("OPENROUTER_SITE_URL"),
			Destination: &cfg.openrouterSiteURL,
		},
		&cli.StringFlag{
			Name:        "openrouter-app-name",
			Usage:       "App name sent as X-Title to OpenRouter",
			Sources:     cli.EnvVars("OPENROUTER_APP_NAME"),
			Destination: &cfg.openrouterAppName,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini embeddings",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini embeddings",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// fileConfig mirrors the YAML config file layout. File values fill gaps left
// by flags and environment variables, never override them.
type fileConfig struct {
	DB                string `yaml:"db"`
	Provider          string `yaml:"embedding_provider"`
	Model             string `yaml:"embedding_model"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenRouterAPIKey  string `yaml:"openrouter_api_key"`
	OpenRouterSiteURL string `yaml:"openrouter_site_url"`
	OpenRouterAppName string `yaml:"openrouter_app_name"`
	GeminiProject     string `yaml:"gemini_project"`
	GeminiLocation    string `yaml:"gemini_location"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
}

// setup merges the optional config file, applies defaults, and installs the
// process logger. Called once at the start of every command action.
func (cfg *config) setup() error {
	if cfg.configFile != "" {
		raw, err := os.ReadFile(cfg.configFile)
		if err != nil {
			return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configFile))
		}

		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configFile))
		}

		fillIfEmpty(&cfg.dbLocator, fc.DB)
		fillIfEmpty(&cfg.provider, fc.Provider)
		fillIfEmpty(&cfg.embedModel, fc.Model)
		fillIfEmpty(&cfg.openaiAPIKey, fc.OpenAIAPIKey)
		fillIfEmpty(&cfg.openrouterAPIKey, fc.OpenRouterAPIKey)
		fillIfEmpty(&cfg.openrouterSiteURL, fc.OpenRouterSiteURL)
		fillIfEmpty(&cfg.openrouterAppName, fc.OpenRouterAppName)
		fillIfEmpty(&cfg.geminiProject, fc.GeminiProject)
		fillIfEmpty(&cfg.geminiLocation, fc.GeminiLocation)
		fillIfEmpty(&cfg.logLevel, fc.LogLevel)
		fillIfEmpty(&cfg.logFormat, fc.LogFormat)
	}

	if cfg.dbLocator == "" {
		cfg.dbLocator = "memory.db"
	}
	if cfg.provider == "" {
		cfg.provider = "openai"
	}
	if cfg.embedModel == "" {
		cfg.embedModel = defaultEmbeddingModel(cfg.provider)
	}
	if cfg.logLevel == "" {
		cfg.logLevel = "info"
	}

	logging.SetDefault(logging.New(cfg.logLevel, cfg.logFormat, os.Stderr))

	return nil
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case "openrouter":
		return "openai/text-embedding-3-small"
	case "gemini":
		return "gemini-embedding-001"
	default:
		return "text-embedding-3-small"
	}
}

// resolveDBPath turns a database locator into a filesystem path. A file: URL
// uses its path component; anything else is a path. Relative results are
// resolved against the working directory.
func resolveDBPath(locator string) (string, error) {
	path := locator
	if strings.HasPrefix(locator, "file:") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", goerr.Wrap(model.ErrInvalidArgument, "invalid database URL",
				goerr.V("locator", locator), goerr.V("cause", err.Error()))
		}
		path = u.Path
		if path == "" {
			// Opaque form such as file:memory.db carries the path without slashes
			path = u.Opaque
		}
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", goerr.Wrap(err, "failed to get working directory")
	}
	return filepath.Join(wd, path), nil
}

// openRepository opens a repository handle for one invocation. An empty
// dbURL selects the configured default locator. Satisfies mcp.RepoOpener.
func (cfg *config) openRepository(dbURL string) (repository.Repository, error) {
	locator := dbURL
	if locator == "" {
		locator = cfg.dbLocator
	}

	path, err := resolveDBPath(locator)
	if err != nil {
		return nil, err
	}

	return repository.New(path)
}

// newEmbedder creates the configured embedding client. A nil return with nil
// error means no backend is configured (missing credentials); callers degrade
// to keyword-only operation.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	switch cfg.provider {
	case "openai":
		if cfg.openaiAPIKey == "" {
			return nil, nil
		}
		return adapter.NewOpenAI(cfg.openaiAPIKey, adapter.WithOpenAIModel(cfg.embedModel)), nil

	case "openrouter":
		if cfg.openrouterAPIKey == "" {
			return nil, nil
		}
		opts := []adapter.OpenRouterOption{adapter.WithOpenRouterModel(cfg.embedModel)}
		if cfg.openrouterSiteURL != "" {
			opts = append(opts, adapter.WithSiteURL(cfg.openrouterSiteURL))
		}
		if cfg.openrouterAppName != "" {
			opts = append(opts, adapter.WithAppName(cfg.openrouterAppName))
		}
		return adapter.NewOpenRouter(cfg.openrouterAPIKey, opts...), nil

	case "gemini":
		if cfg.geminiProject == "" {
			return nil, nil
		}
		gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
			adapter.WithGeminiModel(cfg.embedModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return gemini, nil

	default:
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown embedding provider",
			goerr.V("provider", cfg.provider))
	}
}
