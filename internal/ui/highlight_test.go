package ui

import (
	"strings"
	"testing"
)

func TestANSILen(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"plain", "hello", 5},
		{"empty", "", 0},
		{"colored", "\x1b[38;2;255;0;0mred\x1b[0m", 3},
		{"wide runes", "日本", 4},
		{"tab from col 0", "\tx", 9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ANSILen(tc.in); got != tc.want {
				t.Errorf("ANSILen(%q)=%d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;38;2;10;20;30mbold\x1b[0m plain"
	if got := StripANSI(in); got != "bold plain" {
		t.Errorf("StripANSI=%q", got)
	}
}

func TestNilHighlighterPassesThrough(t *testing.T) {
	var h *Highlighter
	if got := h.HighlightLine("x := 1"); got != "x := 1" {
		t.Errorf("nil HighlightLine=%q", got)
	}
	if got := h.HighlightLineWithBg("x := 1", [3]int{1, 2, 3}); got != "x := 1" {
		t.Errorf("nil HighlightLineWithBg=%q", got)
	}
}

func TestNewHighlighterUnknownExtension(t *testing.T) {
	if h := NewHighlighter("notes.qqq-unknown"); h != nil {
		t.Fatal("expected nil highlighter for unknown extension")
	}
	// Cached nil must come back nil too.
	if h := NewHighlighter("notes.qqq-unknown"); h != nil {
		t.Fatal("expected cached nil highlighter")
	}
}

func TestHighlightLineKeepsText(t *testing.T) {
	h := NewHighlighter("main.go")
	if h == nil {
		t.Fatal("expected a highlighter for main.go")
	}
	out := h.HighlightLine(`return fmt.Errorf("no: %w", err)`)
	if StripANSI(out) != `return fmt.Errorf("no: %w", err)` {
		t.Errorf("highlighting altered text: %q", StripANSI(out))
	}
	if !strings.Contains(out, "\x1b[") {
		t.Error("expected ANSI codes in highlighted line")
	}
}

func TestRenderDiff(t *testing.T) {
	diff := strings.Join([]string{
		"--- a/main.go",
		"+++ b/main.go (generated)",
		"@@ -1,3 +1,3 @@",
		" package main",
		"-var x = 1",
		"+var x = 2",
	}, "\n")

	out := RenderDiff(diff, "main.go", 40)
	plain := StripANSI(out)

	for _, want := range []string{"--- a/main.go", "@@ -1,3 +1,3 @@", "package main", "-var x = 1", "+var x = 2"} {
		if !strings.Contains(plain, want) {
			t.Errorf("rendered diff missing %q:\n%s", want, plain)
		}
	}

	// Changed lines carry a background tint padded toward the width.
	if !strings.Contains(out, "48;2;") {
		t.Error("expected background color on changed lines")
	}
	for _, line := range strings.Split(strings.TrimRight(plain, "\n"), "\n") {
		if strings.HasPrefix(line, "+var") && len(line) < 40 {
			t.Errorf("added line not padded: %q (len %d)", line, len(line))
		}
	}
}
