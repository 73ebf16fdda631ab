// Package cmd contains the command-line entry point and command
// routing for the serendib assistant.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/perera-dev/serendib/internal/config"
	"github.com/perera-dev/serendib/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point: it routes the first argument to a
// command and defaults to interactive chat.
func Execute() error {
	// version and help work even without a valid configuration.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersion()
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			printAPIKeyHint()
		}
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := context.Background()
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "chat":
			return runChat(ctx, cfg, logger)
		case "ask":
			return runAsk(ctx, cfg, logger, os.Args[2:])
		case "knowledge":
			return runKnowledge(ctx, cfg, logger, os.Args[2:])
		default:
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	return runChat(ctx, cfg, logger)
}

// initLogger builds the process logger. The DEBUG environment variable
// enables debug level. Logs go to stderr so stdout stays clean for
// conversation output.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, log.Config{Level: level})
}

func printVersion() {
	fmt.Printf("serendib %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

func printAPIKeyHint() {
	fmt.Fprintln(os.Stderr, "Error: GROQ_API_KEY environment variable not set")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Serendib needs a Groq API key to talk to the model.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "To set your API key:")
	fmt.Fprintln(os.Stderr, "  export GROQ_API_KEY=your-api-key")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Get your API key at: https://console.groq.com/")
}

func printHelp() {
	fmt.Println("Serendib - Sri Lankan market intelligence assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  serendib                     Start interactive chat (default)")
	fmt.Println("  serendib chat                Start interactive chat")
	fmt.Println("  serendib ask <question>      Ask a single question and exit")
	fmt.Println("  serendib knowledge add <t>   Add text to the knowledge base")
	fmt.Println("  serendib knowledge count     Show knowledge base size")
	fmt.Println("  serendib knowledge clear     Clear the knowledge base")
	fmt.Println("  serendib version             Show version information")
	fmt.Println("  serendib help                Show this help")
	fmt.Println()
	fmt.Println("Interactive commands:")
	fmt.Println("  /help /reset /tools /verbose /learn /clear-knowledge /exit")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  GROQ_API_KEY   Required: Groq API key")
	fmt.Println("  DEBUG          Optional: enable debug logging")
}
