package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across all TUI components
var (
	Green = lipgloss.Color("10") // success, user turns
	Red   = lipgloss.Color("9")  // errors
	Grey  = lipgloss.Color("8")  // muted text
	Blue  = lipgloss.Color("4")  // headers, borders
	White = lipgloss.Color("15") // header text
)

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output *os.File) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,

		Title: r.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: r.NewStyle().
			Foreground(Grey),

		Success: r.NewStyle().
			Foreground(Green),

		Error: r.NewStyle().
			Foreground(Red),

		Muted: r.NewStyle().
			Foreground(Grey),

		Bold: r.NewStyle().
			Bold(true),
	}
}

// DefaultStyles returns styles for stdout
func DefaultStyles() *Styles {
	return NewStyles(os.Stdout)
}

// Truncate shortens a string to maxLen with ellipsis
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
