package ui

import (
	"testing"

	"github.com/genterm/genterm/internal/api"
)

func testModels() []api.Model {
	return []api.Model{
		{Name: "llama3:8b", Size: 4661224676},
		{Name: "llama3:70b", Size: 39969745408},
		{Name: "mistral:latest", Size: 4109865159},
		{Name: "codellama:13b", Size: 7365960935},
	}
}

func TestFilterModels(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all", "", []string{"llama3:8b", "llama3:70b", "mistral:latest", "codellama:13b"}},
		{"exact match wins alone", "mistral:latest", []string{"mistral:latest"}},
		{"fuzzy match", "l38", []string{"llama3:8b"}},
		{"no match", "qwen", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterModels(testModels(), tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("FilterModels(%q) returned %d models, want %d", tc.query, len(got), len(tc.want))
			}
			for i, m := range got {
				if m.Name != tc.want[i] {
					t.Errorf("result[%d]=%q, want %q", i, m.Name, tc.want[i])
				}
			}
		})
	}
}

func TestFilterModelsFuzzyRanksAllCandidates(t *testing.T) {
	got := FilterModels(testModels(), "llama")
	if len(got) < 2 {
		t.Fatalf("expected several llama matches, got %d", len(got))
	}
	for _, m := range got {
		if !containsSubsequence(m.Name, "llama") {
			t.Errorf("unexpected match %q for query llama", m.Name)
		}
	}
}

func containsSubsequence(s, sub string) bool {
	i := 0
	for j := 0; j < len(s) && i < len(sub); j++ {
		if s[j] == sub[i] {
			i++
		}
	}
	return i == len(sub)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{4661224676, "4.3 GB"},
	}

	for _, tc := range tests {
		if got := FormatSize(tc.bytes); got != tc.want {
			t.Errorf("FormatSize(%d)=%q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short, 10)=%q", got)
	}
	if got := Truncate("a very long model name", 10); got != "a very ..." {
		t.Errorf("Truncate long=%q", got)
	}
}
