package doc

import "strings"

// Memory is an in-memory document for tests and stdin filter mode. It
// records every Replace call so callers can assert how many happened.
type Memory struct {
	Lines    []string
	Sel      Selection
	Replaced [][]string
}

// NewMemory builds a Memory document over content with the whole text
// selected.
func NewMemory(content string) *Memory {
	lines, _ := splitLines(content)
	return &Memory{Lines: lines, Sel: Selection{StartLine: 1, EndLine: 0}}
}

func (m *Memory) Selection() Selection { return m.Sel }

func (m *Memory) Text() (string, error) {
	start, end, err := bounds(m.Lines, m.Sel)
	if err != nil {
		return "", err
	}
	return strings.Join(m.Lines[start-1:end], "\n"), nil
}

func (m *Memory) Replace(lines []string) error {
	spliced, err := splice(m.Lines, m.Sel, lines)
	if err != nil {
		return err
	}
	m.Lines = spliced
	m.Replaced = append(m.Replaced, append([]string(nil), lines...))
	return nil
}

// Content returns the document as one string.
func (m *Memory) Content() string { return strings.Join(m.Lines, "\n") }
