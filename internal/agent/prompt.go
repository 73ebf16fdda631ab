package agent

import (
	"fmt"
	"strings"

	"github.com/perera-dev/serendib/internal/tools"
)

// BuildSystemPrompt renders the pinned system message: the assistant's
// persona, the available tools, and the directive wire format the model
// must emit to use one.
func BuildSystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant for Sri Lankan market intelligence and economics.\n\n")
	b.WriteString("You have access to these tools:\n")
	for _, t := range registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	b.WriteString("\nWhen you need to use a tool, respond in this format:\n")
	b.WriteString(useToolPrefix + " tool_name\n")
	b.WriteString(inputPrefix + " input_value\n")
	b.WriteString("\nIf no tool is needed, answer the question directly. ")
	b.WriteString("Think step by step and provide clear, actionable insights.")
	return b.String()
}
