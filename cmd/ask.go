package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/perera-dev/serendib/internal/config"
	"github.com/perera-dev/serendib/internal/log"
)

// runAsk answers a single question and exits.
func runAsk(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: serendib ask <question>")
	}

	a, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}

	answer, err := a.Respond(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
