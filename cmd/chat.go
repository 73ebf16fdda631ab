package cmd

import (
	"context"
	"os"

	"github.com/perera-dev/serendib/internal/config"
	"github.com/perera-dev/serendib/internal/log"
	"github.com/perera-dev/serendib/internal/ui"
)

// runChat starts the interactive console.
func runChat(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	a, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}

	console := ui.NewConsole(a, os.Stdin, os.Stdout, logger)
	return console.Run(ctx)
}
