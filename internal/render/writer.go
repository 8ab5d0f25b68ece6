package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer streams appended text straight to an io.Writer. It is the render
// target for non-TTY runs, where output scrolls instead of living in a
// pane.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	wrote  bool
	closed bool
}

// NewWriter returns an open writer target.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (t *Writer) Append(lines []string) {
	if len(lines) == 0 {
		return
	}
	t.AppendText(strings.Join(lines, "\n"))
}

func (t *Writer) AppendText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	fmt.Fprint(t.w, text)
	t.wrote = true
}

// Close finishes the stream with a newline. Idempotent.
func (t *Writer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.wrote {
		fmt.Fprintln(t.w)
	}
}

func (t *Writer) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
