package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/perera-dev/serendib/internal/agent"
	"github.com/perera-dev/serendib/internal/knowledge"
	"github.com/perera-dev/serendib/internal/llm"
	"github.com/perera-dev/serendib/internal/log"
	"github.com/perera-dev/serendib/internal/memory"
	"github.com/perera-dev/serendib/internal/tools"
)

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	return "Echo: " + msgs[len(msgs)-1].Content, nil
}

func newTestConsole(t *testing.T, script string) (*Console, *bytes.Buffer) {
	t.Helper()
	store, err := knowledge.New("", "test", nil, log.NewNop())
	if err != nil {
		t.Fatalf("knowledge.New() error = %v", err)
	}
	registry := tools.NewRegistry(tools.NewCalculator(), tools.NewKnowledgeSearch(store, 2))
	a, err := agent.New(agent.Config{
		Generator: echoGenerator{},
		Memory:    memory.NewWindow(10),
		Knowledge: store,
		Tools:     registry,
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatalf("agent.New() error = %v", err)
	}
	var out bytes.Buffer
	return NewConsole(a, strings.NewReader(script), &out, log.NewNop()), &out
}

func TestConsoleChatAndExit(t *testing.T) {
	c, out := newTestConsole(t, "hello there\n/exit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Agent: Echo: hello there") {
		t.Errorf("output missing agent response:\n%s", got)
	}
	if !strings.Contains(got, "Goodbye!") {
		t.Errorf("output missing farewell:\n%s", got)
	}
}

func TestConsoleEndOfInput(t *testing.T) {
	c, out := newTestConsole(t, "")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConsoleCommands(t *testing.T) {
	script := strings.Join([]string{
		"/help",
		"/tools",
		"/verbose",
		"/learn Pepper prices doubled in Matale.",
		"/clear-knowledge",
		"/reset",
		"/bogus",
		"/quit",
	}, "\n") + "\n"

	c, out := newTestConsole(t, script)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Commands:",
		"Calculator:",
		"Verbose mode enabled.",
		"Added to knowledge base (1 documents).",
		"Knowledge base cleared.",
		"Conversation history reset.",
		"Unknown command: /bogus",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestConsoleLearnUsage(t *testing.T) {
	c, out := newTestConsole(t, "/learn\n/exit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Usage: /learn <text>") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConsoleBlankLinesSkipped(t *testing.T) {
	c, out := newTestConsole(t, "\n   \n/exit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "Agent:") {
		t.Errorf("blank input reached the agent:\n%s", out.String())
	}
}
