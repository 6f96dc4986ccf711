package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/adapter"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func shellCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive search shell",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(); err != nil {
				return err
			}

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("localbrain> ")
			if err != nil {
				return goerr.Wrap(err, "failed to start readline")
			}
			defer rl.Close()

			fmt.Fprintln(c.Root().Writer, "Type a query to search. Commands: /vector <query>, /save <text>, exit")

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case strings.HasPrefix(line, "/save "):
					if err := shellSave(ctx, c, &cfg, embedder, strings.TrimPrefix(line, "/save ")); err != nil {
						fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					}
				case strings.HasPrefix(line, "/vector "):
					if err := shellSearch(ctx, c, &cfg, embedder, strings.TrimPrefix(line, "/vector "), true); err != nil {
						fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					}
				default:
					if err := shellSearch(ctx, c, &cfg, embedder, line, false); err != nil {
						fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					}
				}
			}

			return nil
		},
	}
}

// Each shell action opens its own repository handle, mirroring how tool
// invocations behave in server mode.
func shellSearch(ctx context.Context, c *cli.Command, cfg *config, embedder adapter.Embedder, query string, useVector bool) error {
	repo, err := cfg.openRepository("")
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close repository", "error", err)
		}
	}()

	uc := memory.New(repo, embedder, cfg.embedModel)
	memories, err := uc.Search(ctx, memory.SearchInput{
		Query:     query,
		Limit:     10,
		UseVector: useVector,
	})
	if err != nil {
		return err
	}

	printMemories(c, memories)
	return nil
}

func shellSave(ctx context.Context, c *cli.Command, cfg *config, embedder adapter.Embedder, content string) error {
	repo, err := cfg.openRepository("")
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close repository", "error", err)
		}
	}()

	uc := memory.New(repo, embedder, cfg.embedModel)
	result, err := uc.Save(ctx, memory.SaveInput{
		Content:           content,
		GenerateEmbedding: true,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "Saved memory %d\n", result.Memory.ID)
	return nil
}
