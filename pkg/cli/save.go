package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	"github.com/m-mizutani/localbrain/pkg/usecase/memory"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func saveCommand() *cli.Command {
	var (
		cfg         config
		title       string
		tags        []string
		source      string
		noEmbedding bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Usage:       "Optional short title",
			Destination: &title,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Tag to attach (repeatable)",
			Destination: &tags,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Optional identifier for where this memory came from",
			Destination: &source,
		},
		&cli.BoolFlag{
			Name:        "no-embedding",
			Usage:       "Skip embedding generation",
			Destination: &noEmbedding,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:      "save",
		Usage:     "Save a memory snippet",
		ArgsUsage: "<content>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(); err != nil {
				return err
			}

			content := strings.Join(c.Args().Slice(), " ")
			if content == "" {
				return goerr.Wrap(model.ErrInvalidArgument, "content is required")
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

			if embedder != nil && !noEmbedding {
				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
					spinner.WithWriter(os.Stderr))
				sp.Suffix = " generating embedding..."
				sp.Start()
				defer sp.Stop()
			}

			uc := memory.New(repo, embedder, cfg.embedModel)
			result, err := uc.Save(ctx, memory.SaveInput{
				Content:           content,
				Title:             title,
				Tags:              tags,
				Source:            source,
				GenerateEmbedding: !noEmbedding,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Saved memory %d\n", result.Memory.ID)
			if result.Embedding == model.EmbeddingDegraded {
				fmt.Fprintf(c.Root().Writer, "Warning: embedding not stored (%s)\n", result.Reason)
			}

			return nil
		},
	}
}
