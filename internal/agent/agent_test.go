package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/perera-dev/serendib/internal/knowledge"
	"github.com/perera-dev/serendib/internal/llm"
	"github.com/perera-dev/serendib/internal/log"
	"github.com/perera-dev/serendib/internal/memory"
	"github.com/perera-dev/serendib/internal/tools"
)

// scriptedGenerator returns canned responses in order and records the
// message sequence of every call.
type scriptedGenerator struct {
	responses []string
	calls     [][]llm.Message
	err       error
}

func (g *scriptedGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	g.calls = append(g.calls, append([]llm.Message(nil), msgs...))
	if g.err != nil {
		return "", g.err
	}
	if len(g.calls) > len(g.responses) {
		return g.responses[len(g.responses)-1], nil
	}
	return g.responses[len(g.calls)-1], nil
}

// panicTool always panics, for fault-isolation tests.
type panicTool struct{}

func (panicTool) Name() string        { return "Broken" }
func (panicTool) Description() string { return "Always fails." }
func (panicTool) Call(context.Context, string) string {
	panic("wiring fault")
}

func newTestAgent(t *testing.T, gen Generator) (*Agent, *memory.Window, *knowledge.Store) {
	t.Helper()
	mem := memory.NewWindow(10)
	store, err := knowledge.New("", "test", nil, log.NewNop())
	if err != nil {
		t.Fatalf("knowledge.New() error = %v", err)
	}
	registry := tools.NewRegistry(
		tools.NewCalculator(),
		tools.NewKnowledgeSearch(store, 2),
		panicTool{},
	)
	a, err := New(Config{
		Generator: gen,
		Memory:    mem,
		Knowledge: store,
		Tools:     registry,
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, mem, store
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"nil generator", func(c *Config) { c.Generator = nil }, ErrNilGenerator},
		{"nil memory", func(c *Config) { c.Memory = nil }, ErrNilMemory},
		{"nil knowledge", func(c *Config) { c.Knowledge = nil }, ErrNilKnowledge},
		{"nil tools", func(c *Config) { c.Tools = nil }, ErrNilRegistry},
	}
	store, err := knowledge.New("", "test", nil, log.NewNop())
	if err != nil {
		t.Fatalf("knowledge.New() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Generator: &scriptedGenerator{},
				Memory:    memory.NewWindow(10),
				Knowledge: store,
				Tools:     tools.NewRegistry(),
			}
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRespondDirectAnswer(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"Tea exports rose 4% last quarter."}}
	a, mem, store := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "How are tea exports doing?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != "Tea exports rose 4% last quarter." {
		t.Errorf("Respond() = %q", got)
	}
	if len(gen.calls) != 1 {
		t.Errorf("generation calls = %d, want 1", len(gen.calls))
	}

	msgs := mem.Messages()
	if len(msgs) != 2 {
		t.Fatalf("memory has %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != memory.RoleUser || msgs[1].Role != memory.RoleAssistant {
		t.Errorf("memory roles = %v, %v", msgs[0].Role, msgs[1].Role)
	}

	// The turn is recorded as an episode.
	if store.Count() != 1 {
		t.Fatalf("knowledge count = %d, want 1", store.Count())
	}
	results := store.Query("tea exports", 1)
	want := "User asked: How are tea exports doing?\nAgent answered: Tea exports rose 4% last quarter."
	if len(results) != 1 || results[0].Document.Text != want {
		t.Errorf("episode = %+v, want %q", results, want)
	}
}

func TestRespondDispatchesTool(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"USE_TOOL: Calculator\nINPUT: 150 * 4",
		"The total cost is 600 rupees.",
	}}
	a, mem, _ := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "What do four kilos at 150 cost?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != "The total cost is 600 rupees." {
		t.Errorf("Respond() = %q", got)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("generation calls = %d, want 2", len(gen.calls))
	}

	// The second call sees the folded tool exchange.
	second := gen.calls[1]
	n := len(second)
	if n < 3 {
		t.Fatalf("second call has %d messages", n)
	}
	if want := "I used Calculator and got: Result: 600"; second[n-2].Content != want {
		t.Errorf("folded assistant message = %q, want %q", second[n-2].Content, want)
	}
	if want := "Now provide the final answer based on the tool result."; second[n-1].Content != want {
		t.Errorf("folded user message = %q, want %q", second[n-1].Content, want)
	}

	// The folded exchange is transient: memory keeps only the user
	// input and the final answer.
	if mem.Len() != 2 {
		t.Errorf("memory length = %d, want 2", mem.Len())
	}
}

func TestRespondDispatchCap(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"USE_TOOL: Calculator\nINPUT: 2 + 2"}}
	a, _, _ := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "Loop forever")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	// Three dispatches means four generation calls, then the last
	// response is taken as final whatever it looks like.
	if len(gen.calls) != 4 {
		t.Errorf("generation calls = %d, want 4", len(gen.calls))
	}
	if strings.Contains(got, "USE_TOOL:") || strings.Contains(got, "INPUT:") {
		t.Errorf("final answer retains directive markers: %q", got)
	}
}

func TestRespondMissingInputIsFinal(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"USE_TOOL: Calculator\nI decided not to calculate."}}
	a, _, _ := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(gen.calls) != 1 {
		t.Errorf("generation calls = %d, want 1", len(gen.calls))
	}
	if got != "Calculator\nI decided not to calculate." {
		t.Errorf("Respond() = %q", got)
	}
}

func TestRespondUnknownToolFoldsBack(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"USE_TOOL: Translator\nINPUT: hello",
		"I cannot translate, but I can help with market data.",
	}}
	a, _, _ := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "Translate hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != "I cannot translate, but I can help with market data." {
		t.Errorf("Respond() = %q", got)
	}

	second := gen.calls[1]
	folded := second[len(second)-2].Content
	if want := "I used Translator and got: Unknown tool: Translator"; folded != want {
		t.Errorf("folded message = %q, want %q", folded, want)
	}
}

func TestRespondToolPanicIsContained(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"USE_TOOL: Broken\nINPUT: anything",
		"Something went wrong with that tool.",
	}}
	a, _, _ := newTestAgent(t, gen)

	got, err := a.Respond(context.Background(), "Break it")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != "Something went wrong with that tool." {
		t.Errorf("Respond() = %q", got)
	}

	second := gen.calls[1]
	folded := second[len(second)-2].Content
	if want := "I used Broken and got: Tool error: wiring fault"; folded != want {
		t.Errorf("folded message = %q, want %q", folded, want)
	}
}

func TestRespondToolErrorStringFoldsBack(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"USE_TOOL: Calculator\nINPUT: 1/0",
		"That division is undefined.",
	}}
	a, _, _ := newTestAgent(t, gen)

	if _, err := a.Respond(context.Background(), "What is 1/0?"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	second := gen.calls[1]
	folded := second[len(second)-2].Content
	if want := "I used Calculator and got: Error: division by zero"; folded != want {
		t.Errorf("folded message = %q, want %q", folded, want)
	}
}

func TestRespondGenerationFailure(t *testing.T) {
	gen := &scriptedGenerator{err: fmt.Errorf("backend down")}
	a, mem, store := newTestAgent(t, gen)

	_, err := a.Respond(context.Background(), "Hello")
	if err == nil {
		t.Fatal("Respond() returned nil error on backend failure")
	}

	// The user input survives the failed turn; no assistant message or
	// episode is recorded.
	msgs := mem.Messages()
	if len(msgs) != 1 || msgs[0].Role != memory.RoleUser {
		t.Errorf("memory after failure = %+v", msgs)
	}
	if store.Count() != 0 {
		t.Errorf("knowledge count = %d, want 0", store.Count())
	}
}

func TestLearnAndClearKnowledge(t *testing.T) {
	a, _, store := newTestAgent(t, &scriptedGenerator{responses: []string{"ok"}})

	a.Learn("Pepper prices doubled in Matale.")
	a.Learn("   ")
	if store.Count() != 1 {
		t.Errorf("knowledge count = %d, want 1", store.Count())
	}
	if a.KnowledgeCount() != 1 {
		t.Errorf("KnowledgeCount() = %d, want 1", a.KnowledgeCount())
	}

	a.ClearKnowledge()
	if store.Count() != 0 {
		t.Errorf("knowledge count after clear = %d, want 0", store.Count())
	}
}

func TestResetRepinsSystemPrompt(t *testing.T) {
	mem := memory.NewWindow(10)
	store, err := knowledge.New("", "test", nil, log.NewNop())
	if err != nil {
		t.Fatalf("knowledge.New() error = %v", err)
	}
	a, err := New(Config{
		Generator:    &scriptedGenerator{responses: []string{"ok"}},
		Memory:       mem,
		Knowledge:    store,
		Tools:        tools.NewRegistry(),
		SystemPrompt: "You are an assistant.",
		Logger:       log.NewNop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Respond(context.Background(), "Hi"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	a.Reset()
	msgs := mem.Messages()
	if len(msgs) != 1 || msgs[0].Role != memory.RoleSystem {
		t.Errorf("messages after reset = %+v, want pinned system only", msgs)
	}
	if msgs[0].Content != "You are an assistant." {
		t.Errorf("pinned content = %q", msgs[0].Content)
	}
}

func TestToolInfo(t *testing.T) {
	a, _, _ := newTestAgent(t, &scriptedGenerator{})
	info := a.ToolInfo()
	if len(info) != 3 {
		t.Fatalf("ToolInfo() returned %d entries, want 3", len(info))
	}
	if !strings.HasPrefix(info[0], "Calculator: ") {
		t.Errorf("ToolInfo()[0] = %q", info[0])
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	registry := tools.NewRegistry(tools.NewCalculator())
	prompt := BuildSystemPrompt(registry)
	for _, want := range []string{"Calculator", "USE_TOOL:", "INPUT:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("BuildSystemPrompt() missing %q", want)
		}
	}
}
