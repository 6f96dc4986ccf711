package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/localbrain/pkg/model"
	mcpservice "github.com/m-mizutani/localbrain/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg       config
		transport string
		addr      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "transport",
			Aliases:     []string{"t"},
			Usage:       "MCP transport (stdio or http)",
			Value:       "stdio",
			Sources:     cli.EnvVars("LOCALBRAIN_TRANSPORT"),
			Destination: &transport,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address for HTTP transport",
			Value:       ":3000",
			Sources:     cli.EnvVars("LOCALBRAIN_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server exposing save_memory and fetch_memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setup(); err != nil {
				return err
			}

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			server := mcpservice.New(cfg.openRepository, embedder, cfg.embedModel)

			switch transport {
			case "stdio":
				return server.Run(ctx)
			case "http":
				return server.RunHTTP(ctx, addr)
			default:
				return goerr.Wrap(model.ErrInvalidArgument, "unsupported transport",
					goerr.V("transport", transport))
			}
		},
	}
}
