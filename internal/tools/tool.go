// Package tools implements the deterministic capabilities the agent can
// dispatch to: an arithmetic calculator, a web page scraper, and a
// knowledge base lookup.
//
// Tools never fail in the Go sense. Every outcome, including internal
// errors, is rendered as a string so the result can be folded back into
// the conversation and the model can react to it.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Tool is a single named capability.
type Tool interface {
	// Name is the identifier the model uses to select the tool.
	Name() string

	// Description tells the model what the tool does and what input it
	// expects. It is included in the system prompt.
	Description() string

	// Call executes the tool. The returned string is always a
	// user-visible result; failures are reported in-band as
	// "Error: ..." text.
	Call(ctx context.Context, input string) string
}

// Registry holds the available tools, looked up case-insensitively.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a Registry containing the given tools.
// Registration of a duplicate name (ignoring case) panics: that is a
// programming error, not a runtime condition.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	key := strings.ToLower(t.Name())
	if _, exists := r.tools[key]; exists {
		panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name()))
	}
	r.tools[key] = t
	r.order = append(r.order, key)
}

// Lookup returns the tool for name, matched case-insensitively.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.tools[key])
	}
	return out
}

// Names returns the registered tool names, sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}
