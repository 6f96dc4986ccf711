package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "localbrain",
		Usage: "Personal memory store with keyword and semantic search",
		Commands: []*cli.Command{
			serveCommand(),
			saveCommand(),
			searchCommand(),
			shellCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
