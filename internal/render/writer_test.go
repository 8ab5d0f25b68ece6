package render

import (
	"strings"
	"testing"
)

func TestWriterStreamsText(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)

	w.AppendText("Hel")
	w.AppendText("lo")
	w.Append([]string{" world", "second line"})
	w.Close()

	if got := buf.String(); got != "Hello world\nsecond line\n" {
		t.Errorf("output = %q", got)
	}
	if !w.Closed() {
		t.Error("Closed() = false after Close")
	}
}

func TestWriterCloseWithoutOutput(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)
	w.Close()

	if buf.String() != "" {
		t.Errorf("output = %q, want nothing for a silent stream", buf.String())
	}
}

func TestWriterCloseIdempotent(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)
	w.AppendText("x")
	w.Close()
	w.Close()

	if got := buf.String(); got != "x\n" {
		t.Errorf("output = %q, want a single trailing newline", got)
	}
}

func TestWriterDropsAppendsAfterClose(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)
	w.AppendText("kept")
	w.Close()
	w.AppendText("dropped")
	w.Append([]string{"also dropped"})

	if got := buf.String(); got != "kept\n" {
		t.Errorf("output = %q, want appends after Close ignored", got)
	}
}

func TestWriterImplementsTarget(t *testing.T) {
	var _ Target = NewWriter(&strings.Builder{})
}
