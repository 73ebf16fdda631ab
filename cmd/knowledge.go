package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/perera-dev/serendib/internal/config"
	"github.com/perera-dev/serendib/internal/log"
)

// runKnowledge manages the knowledge base from the command line.
func runKnowledge(_ context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: serendib knowledge add <text>|clear|count")
	}

	store, err := newKnowledgeStore(cfg, logger)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			return fmt.Errorf("usage: serendib knowledge add <text>")
		}
		store.Index([]string{text})
		fmt.Printf("Added 1 document (%d total).\n", store.Count())
		return nil

	case "clear":
		store.Clear()
		fmt.Println("Knowledge base cleared.")
		return nil

	case "count":
		fmt.Printf("%d documents in collection %q.\n", store.Count(), cfg.Collection)
		return nil

	default:
		return fmt.Errorf("unknown knowledge subcommand %q", args[0])
	}
}
