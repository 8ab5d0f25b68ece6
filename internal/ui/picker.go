package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/genterm/genterm/internal/api"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")) // bright green
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // grey
)

// modelSource implements fuzzy.Source over model names
type modelSource []api.Model

func (m modelSource) String(i int) string {
	return m[i].Name
}

func (m modelSource) Len() int {
	return len(m)
}

// FilterModels returns models matching the query using fuzzy search.
// An exact name match wins outright; fuzzy matches come back ranked; a
// prefix scan is the last resort.
func FilterModels(models []api.Model, query string) []api.Model {
	if query == "" {
		return models
	}

	queryLower := strings.ToLower(query)
	for _, m := range models {
		if strings.ToLower(m.Name) == queryLower {
			return []api.Model{m}
		}
	}

	matches := fuzzy.FindFrom(query, modelSource(models))

	var result []api.Model
	for _, match := range matches {
		result = append(result, models[match.Index])
	}

	if len(result) == 0 {
		for _, m := range models {
			if strings.HasPrefix(strings.ToLower(m.Name), queryLower) {
				result = append(result, m)
			}
		}
	}

	return result
}

// formatModelOption renders a picker row with lipgloss styling
func formatModelOption(m api.Model) string {
	label := nameStyle.Render(m.Name)
	if m.Size > 0 {
		label += detailStyle.Render("  " + FormatSize(m.Size))
	}
	return label
}

// PickModel presents a selector over the installed models and returns the
// chosen name. current, when it names a listed model, is preselected.
func PickModel(models []api.Model, current string) (string, error) {
	if len(models) == 0 {
		return "", fmt.Errorf("no models to pick from")
	}

	selected := models[0].Name
	options := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		options = append(options, huh.NewOption(formatModelOption(m), m.Name))
		if m.Name == current {
			selected = m.Name
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a model").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}

	return selected, nil
}

// AskInput prompts for free-form input when a template needs $input and
// the command line did not supply any.
func AskInput(title string) (string, error) {
	var input string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("e.g., make it more concise").
				Value(&input),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}

	return input, nil
}

// FormatSize renders a byte count as a short human figure (e.g. "4.1 GB")
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
