package doc

import (
	"fmt"
	"os"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// File edits a line range of a file on disk.
type File struct {
	Path string
	Sel  Selection
}

func (f *File) Selection() Selection { return f.Sel }

// Text returns the current content of the selection.
func (f *File) Text() (string, error) {
	lines, _, err := f.load()
	if err != nil {
		return "", err
	}
	start, end, err := bounds(lines, f.Sel)
	if err != nil {
		return "", err
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// Replace rewrites the file with the selection swapped for lines.
func (f *File) Replace(lines []string) error {
	all, trailing, err := f.load()
	if err != nil {
		return err
	}
	spliced, err := splice(all, f.Sel, lines)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, []byte(joinLines(spliced, trailing)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Path, err)
	}
	return nil
}

// Preview returns a unified diff of what Replace would do, without
// touching the file.
func (f *File) Preview(lines []string) (string, error) {
	all, trailing, err := f.load()
	if err != nil {
		return "", err
	}
	spliced, err := splice(all, f.Sel, lines)
	if err != nil {
		return "", err
	}
	before := joinLines(all, trailing)
	after := joinLines(spliced, trailing)
	edits := myers.ComputeEdits(span.URIFromPath(f.Path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(f.Path, f.Path+" (generated)", before, edits)), nil
}

func (f *File) load() ([]string, bool, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	lines, trailing := splitLines(string(b))
	return lines, trailing, nil
}
