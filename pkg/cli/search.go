package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg       config
		limit     int64
		useVector bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of results",
			Value:       10,
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "vector",
			Aliases:     []string{"v"},
			Usage:       "Use embedding-based similarity search",
			Destination: &useVector,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search saved memories",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(); err != nil {
				return err
			}

			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return goerr.Wrap(model.ErrInvalidArgument, "query is required")
			}

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

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
				Limit:     int(limit),
				UseVector: useVector,
			})
			if err != nil {
				return err
			}

			printMemories(c, memories)
			return nil
		},
	}
}

func printMemories(c *cli.Command, memories []*model.Memory) {
	if len(memories) == 0 {
		fmt.Fprintln(c.Root().Writer, "No memories found")
		return
	}

	for _, mem := range memories {
		fmt.Fprintf(c.Root().Writer, "[%d] %s", mem.ID, mem.CreatedAt.Format("2006-01-02 15:04"))
		if mem.Title != "" {
			fmt.Fprintf(c.Root().Writer, " %s", mem.Title)
		}
		fmt.Fprintln(c.Root().Writer)
		fmt.Fprintf(c.Root().Writer, "    %s\n", mem.Content)
		if len(mem.Tags) > 0 {
			fmt.Fprintf(c.Root().Writer, "    tags: %s\n", strings.Join(mem.Tags, ", "))
		}
		if mem.Source != "" {
			fmt.Fprintf(c.Root().Writer, "    source: %s\n", mem.Source)
		}
	}
}
