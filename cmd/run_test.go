package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genterm/genterm/internal/doc"
	"github.com/genterm/genterm/internal/session"
	"github.com/genterm/genterm/internal/stream"
)

func TestStatsSummary(t *testing.T) {
	tests := []struct {
		name string
		in   *stream.Stats
		want string
	}{
		{"nil stats", nil, ""},
		{"no duration", &stream.Stats{OutputTokens: 10}, ""},
		{"counted", &stream.Stats{OutputTokens: 40, EvalDuration: 2 * time.Second}, "40 tokens, 20.0 tokens/s"},
	}
	for _, tt := range tests {
		if got := statsSummary(tt.in); got != tt.want {
			t.Errorf("%s: statsSummary() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRunSummary(t *testing.T) {
	restoreFile, restoreDiff := runFile, runDiff
	defer func() { runFile, runDiff = restoreFile, restoreDiff }()
	runFile = "notes.md"

	stats := &stream.Stats{OutputTokens: 40, EvalDuration: 2 * time.Second}

	runDiff = false
	got := runSummary(session.Result{State: session.Closed, Stats: stats}, true)
	if got != "wrote notes.md  40 tokens, 20.0 tokens/s" {
		t.Errorf("replace summary = %q", got)
	}

	runDiff = true
	got = runSummary(session.Result{State: session.Closed}, true)
	if got != "diff only, file unchanged" {
		t.Errorf("diff summary = %q", got)
	}

	runDiff = false
	got = runSummary(session.Result{State: session.Closed, Stats: stats}, false)
	if got != "40 tokens, 20.0 tokens/s" {
		t.Errorf("plain summary = %q", got)
	}

	got = runSummary(session.Result{State: session.Cancelled, Stats: stats}, true)
	if strings.Contains(got, "wrote") {
		t.Errorf("cancelled summary = %q, must not claim a write", got)
	}
}

func TestDiffPreviewLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	original := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	var out string
	preview := &diffPreview{
		file: &doc.File{Path: path, Sel: doc.Selection{StartLine: 2, EndLine: 2}},
		out:  &out,
	}

	if err := preview.Replace([]string{"B changed"}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if !strings.Contains(out, "-b") || !strings.Contains(out, "+B changed") {
		t.Errorf("diff = %q, want removed and added lines", out)
	}
	if !strings.Contains(out, "@@") {
		t.Errorf("diff = %q, want hunk headers", out)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(onDisk) != original {
		t.Errorf("file content = %q, want untouched original", onDisk)
	}
}

func TestDiffPreviewExposesSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte("x\ny\nz\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out string
	preview := &diffPreview{
		file: &doc.File{Path: path, Sel: doc.Selection{StartLine: 2, EndLine: 3}},
		out:  &out,
	}

	if got := preview.Selection(); got.StartLine != 2 || got.EndLine != 3 {
		t.Errorf("Selection() = %+v", got)
	}
	text, err := preview.Text()
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if text != "y\nz" {
		t.Errorf("Text() = %q, want the selected lines", text)
	}
}
