package doc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Selection
		wantErr bool
	}{
		{name: "start and end", in: "3:7", want: Selection{StartLine: 3, EndLine: 7}},
		{name: "single line", in: "5", want: Selection{StartLine: 5, EndLine: 5}},
		{name: "open end", in: "2:", want: Selection{StartLine: 2, EndLine: 0}},
		{name: "dollar end", in: "2:$", want: Selection{StartLine: 2, EndLine: 0}},
		{name: "reversed", in: "7:3", wantErr: true},
		{name: "zero start", in: "0:3", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRange(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.go")
	content := "package x\n\nfunc old() {}\n\nfunc keep() {}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f := &File{Path: path, Sel: Selection{StartLine: 3, EndLine: 3}}

	text, err := f.Text()
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if text != "func old() {}" {
		t.Errorf("Text() = %q, want the selected line", text)
	}

	if err := f.Replace([]string{"func new() {", "\treturn", "}"}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "package x\n\nfunc new() {\n\treturn\n}\n\nfunc keep() {}\n"
	if string(got) != want {
		t.Errorf("file after Replace = %q, want %q", got, want)
	}
}

func TestFileReplaceOpenEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := &File{Path: path, Sel: Selection{StartLine: 2, EndLine: 0}}
	if err := f.Replace([]string{"rest"}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "one\nrest\n" {
		t.Errorf("file after Replace = %q, want %q", got, "one\nrest\n")
	}
}

func TestFileSelectionPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	if err := os.WriteFile(path, []byte("only\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f := &File{Path: path, Sel: Selection{StartLine: 10, EndLine: 12}}
	if _, err := f.Text(); err == nil {
		t.Error("Text() = nil error, want out-of-range failure")
	}
	if err := f.Replace([]string{"x"}); err == nil {
		t.Error("Replace() = nil error, want out-of-range failure")
	}
}

func TestFilePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prev.txt")
	content := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f := &File{Path: path, Sel: Selection{StartLine: 2, EndLine: 2}}
	diff, err := f.Preview([]string{"B"})
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}
	if !strings.Contains(diff, "-b") || !strings.Contains(diff, "+B") {
		t.Errorf("Preview() = %q, want a hunk replacing b with B", diff)
	}

	got, _ := os.ReadFile(path)
	if string(got) != content {
		t.Errorf("Preview() mutated the file: %q", got)
	}
}

func TestMemoryReplaceRecords(t *testing.T) {
	m := NewMemory("alpha\nbeta")
	m.Sel = Selection{StartLine: 1, EndLine: 1}

	if err := m.Replace([]string{"ALPHA", "extra"}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if m.Content() != "ALPHA\nextra\nbeta" {
		t.Errorf("Content() = %q", m.Content())
	}
	if len(m.Replaced) != 1 {
		t.Errorf("Replaced calls = %d, want 1", len(m.Replaced))
	}
}
