package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Background tints for changed lines, dark enough that monokai foreground
// colors stay legible on top.
var (
	addedBg   = [3]int{20, 60, 20}
	removedBg = [3]int{75, 25, 25}
)

var (
	diffFileStyle    = lipgloss.NewStyle().Bold(true).Foreground(White)
	diffHunkStyle    = lipgloss.NewStyle().Foreground(Blue)
	diffAddedStyle   = lipgloss.NewStyle().Foreground(Green)
	diffRemovedStyle = lipgloss.NewStyle().Foreground(Red)
)

// RenderDiff colorizes a unified diff for terminal display. Added and
// removed lines get tinted backgrounds padded to width, with syntax
// highlighting (from path's language) layered on top; context lines get
// plain highlighting; file and hunk headers are styled, never highlighted.
// width <= 0 disables padding.
func RenderDiff(diff, path string, width int) string {
	h := NewHighlighter(path)

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(diffFileStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(diffHunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(changedLine(h, line, addedBg, diffAddedStyle, width))
		case strings.HasPrefix(line, "-"):
			b.WriteString(changedLine(h, line, removedBg, diffRemovedStyle, width))
		default:
			b.WriteString(contextLine(h, line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func changedLine(h *Highlighter, line string, bg [3]int, fallback lipgloss.Style, width int) string {
	if h == nil {
		return fallback.Render(line)
	}
	marker, body := line[:1], line[1:]
	out := bgSpan(bg, marker) + h.HighlightLineWithBg(body, bg)
	if pad := width - ANSILen(out); pad > 0 {
		out += bgSpan(bg, strings.Repeat(" ", pad))
	}
	return out
}

func contextLine(h *Highlighter, line string) string {
	if h == nil || line == "" {
		return line
	}
	marker, body := "", line
	if strings.HasPrefix(line, " ") {
		marker, body = " ", line[1:]
	}
	return marker + h.HighlightLine(body)
}

func bgSpan(bg [3]int, s string) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", bg[0], bg[1], bg[2], s)
}
