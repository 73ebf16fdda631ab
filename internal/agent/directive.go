package agent

import "strings"

// Directive prefixes the model emits to request a tool invocation.
const (
	useToolPrefix = "USE_TOOL:"
	inputPrefix   = "INPUT:"
)

// directive is a parsed tool request.
type directive struct {
	Tool  string
	Input string
}

// parseDirective scans a model response for a tool request. A request
// requires a "USE_TOOL: <name>" line followed on a later line by an
// "INPUT: <value>" line; a USE_TOOL line with no subsequent INPUT line
// is not a request, and the response is treated as a final answer.
func parseDirective(response string) (directive, bool) {
	var d directive
	sawTool := false
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case !sawTool:
			if rest, ok := strings.CutPrefix(line, useToolPrefix); ok {
				d.Tool = strings.TrimSpace(rest)
				sawTool = true
			}
		default:
			if rest, ok := strings.CutPrefix(line, inputPrefix); ok {
				d.Input = strings.TrimSpace(rest)
				return d, d.Tool != ""
			}
		}
	}
	return directive{}, false
}

// sanitizeResponse strips residual directive markers from a final
// answer so protocol text never reaches the user. Only the marker
// substrings are removed; surrounding text stays intact.
func sanitizeResponse(response string) string {
	response = strings.ReplaceAll(response, useToolPrefix, "")
	response = strings.ReplaceAll(response, inputPrefix, "")
	return strings.TrimSpace(response)
}
