package doc

import (
	"fmt"
	"strings"
)

// Selection marks a line range in a document, 1-based and inclusive.
// EndLine <= 0 means through the last line.
type Selection struct {
	StartLine int
	EndLine   int
}

// ParseRange parses a "start:end" flag value. A bare number selects that
// single line; an empty end runs through the last line.
func ParseRange(s string) (Selection, error) {
	var sel Selection
	start, end, found := strings.Cut(s, ":")
	if _, err := fmt.Sscanf(start, "%d", &sel.StartLine); err != nil {
		return Selection{}, fmt.Errorf("invalid line range %q", s)
	}
	switch {
	case !found:
		sel.EndLine = sel.StartLine
	case end == "", end == "$":
		sel.EndLine = 0
	default:
		if _, err := fmt.Sscanf(end, "%d", &sel.EndLine); err != nil {
			return Selection{}, fmt.Errorf("invalid line range %q", s)
		}
	}
	if sel.StartLine < 1 || (sel.EndLine > 0 && sel.EndLine < sel.StartLine) {
		return Selection{}, fmt.Errorf("invalid line range %q", s)
	}
	return sel, nil
}

// Document is the host text a replace-mode run substitutes into. It
// supplies the original selection and receives exactly one region-replace
// call with the final line sequence, or none at all when the run fails,
// is cancelled, or only previews.
type Document interface {
	Selection() Selection
	Text() (string, error)
	Replace(lines []string) error
}

// splice swaps the selected region of lines for repl.
func splice(lines []string, sel Selection, repl []string) ([]string, error) {
	start, end, err := bounds(lines, sel)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines)-(end-start+1)+len(repl))
	out = append(out, lines[:start-1]...)
	out = append(out, repl...)
	out = append(out, lines[end:]...)
	return out, nil
}

func bounds(lines []string, sel Selection) (start, end int, err error) {
	start = sel.StartLine
	if start < 1 {
		start = 1
	}
	end = sel.EndLine
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) {
		return 0, 0, fmt.Errorf("selection starts at line %d but document has %d lines", sel.StartLine, len(lines))
	}
	return start, end, nil
}

// splitLines separates content into lines, remembering whether it ended
// with a newline so a rewrite can preserve it.
func splitLines(content string) (lines []string, trailingNewline bool) {
	if strings.HasSuffix(content, "\n") {
		return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), true
	}
	return strings.Split(content, "\n"), false
}

func joinLines(lines []string, trailingNewline bool) string {
	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	return out
}
