// Package ui implements the interactive console.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/perera-dev/serendib/internal/agent"
	"github.com/perera-dev/serendib/internal/log"
)

const banner = `============================================================
Serendib - Sri Lankan market intelligence assistant
============================================================
I can help with calculations, web page lookups, and knowledge search.
Type /help for available commands.
`

const helpText = `Commands:
  /help             Show this help message
  /reset            Reset conversation history
  /tools            List available tools
  /verbose          Toggle verbose mode
  /learn <text>     Add text to the knowledge base
  /clear-knowledge  Clear the knowledge base
  /exit, /quit      Exit
`

// Console runs the interactive read-eval loop against an Agent.
type Console struct {
	agent   *agent.Agent
	in      *bufio.Scanner
	out     io.Writer
	logger  log.Logger
	verbose bool
}

// NewConsole creates a Console reading from in and writing to out.
func NewConsole(a *agent.Agent, in io.Reader, out io.Writer, logger log.Logger) *Console {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Console{
		agent:  a,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run loops over user input until /exit, end of input, or context
// cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprint(c.out, banner)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(c.out, "\nYou: ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out, "\nGoodbye!")
			return c.in.Err()
		}

		input := strings.TrimSpace(c.in.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := c.handleCommand(input); quit {
				fmt.Fprintln(c.out, "Goodbye!")
				return nil
			}
			continue
		}

		response, err := c.agent.Respond(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Error("turn failed", "error", err)
			fmt.Fprintf(c.out, "Error: %v\nPlease try again.\n", err)
			continue
		}
		fmt.Fprintf(c.out, "Agent: %s\n", response)
	}
}

// handleCommand executes a slash command and reports whether the
// console should exit.
func (c *Console) handleCommand(input string) bool {
	command, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "/exit", "/quit":
		return true

	case "/help":
		fmt.Fprint(c.out, helpText)

	case "/reset":
		c.agent.Reset()
		fmt.Fprintln(c.out, "Conversation history reset.")

	case "/tools":
		fmt.Fprintln(c.out, "Available tools:")
		for _, line := range c.agent.ToolInfo() {
			fmt.Fprintf(c.out, "  - %s\n", line)
		}

	case "/verbose":
		c.verbose = !c.verbose
		c.agent.SetVerbose(c.verbose)
		if c.verbose {
			fmt.Fprintln(c.out, "Verbose mode enabled.")
		} else {
			fmt.Fprintln(c.out, "Verbose mode disabled.")
		}

	case "/learn":
		if rest == "" {
			fmt.Fprintln(c.out, "Usage: /learn <text>")
			break
		}
		c.agent.Learn(rest)
		fmt.Fprintf(c.out, "Added to knowledge base (%d documents).\n", c.agent.KnowledgeCount())

	case "/clear-knowledge":
		c.agent.ClearKnowledge()
		fmt.Fprintln(c.out, "Knowledge base cleared.")

	default:
		fmt.Fprintf(c.out, "Unknown command: %s\nType /help for available commands.\n", command)
	}
	return false
}
