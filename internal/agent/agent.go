// Package agent implements the conversation loop: it interleaves model
// generation with deterministic tool execution until a final answer is
// produced.
//
// The loop is bounded. Each call to Respond performs at most
// maxDispatches tool invocations, which caps the number of generation
// calls at maxDispatches+1. Tool faults never abort a turn; only a
// generation failure does.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/perera-dev/serendib/internal/knowledge"
	"github.com/perera-dev/serendib/internal/llm"
	"github.com/perera-dev/serendib/internal/log"
	"github.com/perera-dev/serendib/internal/memory"
	"github.com/perera-dev/serendib/internal/tools"
)

// maxDispatches bounds tool invocations per turn.
const maxDispatches = 3

// Configuration errors.
var (
	ErrNilGenerator = errors.New("agent: generator is required")
	ErrNilMemory    = errors.New("agent: memory is required")
	ErrNilKnowledge = errors.New("agent: knowledge store is required")
	ErrNilRegistry  = errors.New("agent: tool registry is required")
)

// Generator produces a model response for a message sequence.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Config assembles an Agent's collaborators.
type Config struct {
	Generator Generator
	Memory    *memory.Window
	Knowledge *knowledge.Store
	Tools     *tools.Registry

	// SystemPrompt, when non-empty, is pinned into memory at
	// construction and re-pinned after Reset.
	SystemPrompt string

	// Logger for turn tracing (nil = no-op).
	Logger log.Logger

	// Verbose raises tool dispatch logging to info level.
	Verbose bool
}

func (c Config) validate() error {
	switch {
	case c.Generator == nil:
		return ErrNilGenerator
	case c.Memory == nil:
		return ErrNilMemory
	case c.Knowledge == nil:
		return ErrNilKnowledge
	case c.Tools == nil:
		return ErrNilRegistry
	}
	return nil
}

// Agent runs bounded tool-dispatch conversation turns.
// Agent methods must not be called concurrently for the same
// conversation.
type Agent struct {
	generator Generator
	memory    *memory.Window
	knowledge *knowledge.Store
	tools     *tools.Registry
	logger    log.Logger
	verbose   atomic.Bool

	systemPrompt   string
	conversationID string
}

// New creates an Agent from cfg.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	id := uuid.NewString()
	a := &Agent{
		generator:      cfg.Generator,
		memory:         cfg.Memory,
		knowledge:      cfg.Knowledge,
		tools:          cfg.Tools,
		logger:         logger.With("conversation_id", id),
		systemPrompt:   cfg.SystemPrompt,
		conversationID: id,
	}
	a.verbose.Store(cfg.Verbose)

	if a.systemPrompt != "" {
		a.memory.SetSystem(a.systemPrompt)
	}
	return a, nil
}

// ConversationID returns the identifier attached to this conversation's
// log records.
func (a *Agent) ConversationID() string {
	return a.conversationID
}

// SetVerbose toggles info-level tool dispatch logging.
func (a *Agent) SetVerbose(v bool) {
	a.verbose.Store(v)
}

// Respond runs one conversation turn and returns the final answer.
//
// The user input is appended to memory before generation, so on a
// generation failure the input remains in history while no assistant
// message is added. A successful turn appends the sanitized answer to
// memory and indexes an episode record into the knowledge store.
func (a *Agent) Respond(ctx context.Context, input string) (string, error) {
	a.memory.AddUser(input)

	// Tool results are folded into a transient copy of the window.
	// Only the user input and the final answer persist in memory.
	msgs := toWire(a.memory.Messages())

	response, err := a.generate(ctx, msgs)
	if err != nil {
		return "", err
	}

	for dispatches := 0; dispatches < maxDispatches; dispatches++ {
		d, ok := parseDirective(response)
		if !ok {
			break
		}

		result := a.dispatch(ctx, d)
		msgs = append(msgs,
			llm.Message{Role: string(memory.RoleAssistant), Content: fmt.Sprintf("I used %s and got: %s", d.Tool, result)},
			llm.Message{Role: string(memory.RoleUser), Content: "Now provide the final answer based on the tool result."},
		)

		response, err = a.generate(ctx, msgs)
		if err != nil {
			return "", err
		}
	}

	final := sanitizeResponse(response)
	a.memory.AddAssistant(final)

	a.knowledge.Index([]string{
		fmt.Sprintf("User asked: %s\nAgent answered: %s", input, final),
	})
	return final, nil
}

// generate invokes the backend with the given message sequence.
func (a *Agent) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	text, err := a.generator.Generate(ctx, msgs)
	if err != nil {
		a.logger.Error("generation failed", "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return text, nil
}

// toWire converts stored messages to API wire format.
func toWire(msgs []memory.Message) []llm.Message {
	wire := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		wire[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return wire
}

// dispatch invokes the directive's tool. Every outcome, including an
// unknown tool name or a tool panic, comes back as result text so the
// turn continues.
func (a *Agent) dispatch(ctx context.Context, d directive) (result string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("tool panicked", "tool", d.Tool, "panic", r)
			result = fmt.Sprintf("Tool error: %v", r)
		}
	}()

	tool, ok := a.tools.Lookup(d.Tool)
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", d.Tool)
		return fmt.Sprintf("Unknown tool: %s", d.Tool)
	}

	a.logDispatch("dispatching tool", "tool", tool.Name(), "input", d.Input)
	result = tool.Call(ctx, d.Input)
	a.logDispatch("tool returned", "tool", tool.Name(), "result_len", len(result))
	return result
}

func (a *Agent) logDispatch(msg string, args ...any) {
	if a.verbose.Load() {
		a.logger.Info(msg, args...)
	} else {
		a.logger.Debug(msg, args...)
	}
}

// Reset clears the conversation history and re-pins the configured
// system prompt.
func (a *Agent) Reset() {
	a.memory.Clear()
	if a.systemPrompt != "" {
		a.memory.SetSystem(a.systemPrompt)
	}
	a.logger.Info("conversation reset")
}

// Learn indexes free text into the knowledge store.
func (a *Agent) Learn(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	a.knowledge.Index([]string{text})
}

// ClearKnowledge removes every document from the knowledge store.
func (a *Agent) ClearKnowledge() {
	a.knowledge.Clear()
	a.logger.Info("knowledge store cleared")
}

// KnowledgeCount returns the number of indexed documents.
func (a *Agent) KnowledgeCount() int {
	return a.knowledge.Count()
}

// HistorySummary describes the current conversation window.
func (a *Agent) HistorySummary() string {
	return a.memory.Summary()
}

// ToolInfo returns one "Name: description" line per registered tool,
// in registration order.
func (a *Agent) ToolInfo() []string {
	list := a.tools.List()
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = fmt.Sprintf("%s: %s", t.Name(), t.Description())
	}
	return out
}
