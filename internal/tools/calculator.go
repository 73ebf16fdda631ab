package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
)

// Calculator evaluates arithmetic expressions in a sandboxed
// expression engine. No identifiers or function calls beyond plain
// arithmetic are available to the evaluated input.
type Calculator struct{}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Name() string { return "Calculator" }

func (c *Calculator) Description() string {
	return "Evaluates arithmetic expressions. Input: a math expression like \"150 * 1.08\" or \"(2500 - 1200) / 4\"."
}

// Call evaluates input and returns "Result: <value>" or "Error: <reason>".
func (c *Calculator) Call(_ context.Context, input string) string {
	normalized := normalizeExpression(input)
	if normalized == "" {
		return "Error: empty expression"
	}

	program, err := expr.Compile(normalized, expr.Env(map[string]any{}))
	if err != nil {
		return fmt.Sprintf("Error: invalid expression: %s", compactError(err))
	}

	value, err := expr.Run(program, map[string]any{})
	if err != nil {
		if strings.Contains(err.Error(), "divide by zero") {
			return "Error: division by zero"
		}
		return fmt.Sprintf("Error: %s", compactError(err))
	}

	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return "Error: division by zero"
	}
	return "Result: " + formatNumber(value)
}

// normalizeExpression maps common unicode math operators to their ASCII
// forms so pasted expressions evaluate as intended.
func normalizeExpression(input string) string {
	replacer := strings.NewReplacer(
		"×", "*",
		"÷", "/",
		"−", "-",
		"^", "**",
	)
	return strings.TrimSpace(replacer.Replace(input))
}

// formatNumber renders integers without a fractional part and other
// numbers with four decimal places.
func formatNumber(value any) string {
	switch v := value.(type) {
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// compactError trims expression-engine error output to its first line.
func compactError(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}
