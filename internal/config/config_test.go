package config

import (
	"testing"

	"github.com/genterm/genterm/internal/api"
)

func base() *Config {
	return &Config{
		Model:   "mistral",
		Host:    "localhost",
		Port:    11434,
		Mode:    "chat",
		Command: api.DefaultCommand,
	}
}

func TestSnapshotDefaults(t *testing.T) {
	opts, err := base().Snapshot(Overrides{})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if opts.Model != "mistral" {
		t.Errorf("model=%q, want %q", opts.Model, "mistral")
	}
	if opts.Mode != api.ModeChat {
		t.Errorf("mode=%q, want %q", opts.Mode, api.ModeChat)
	}
	if got := opts.Endpoint().StreamURL(opts.Mode); got != "http://localhost:11434/api/chat" {
		t.Errorf("stream url=%q", got)
	}
}

func TestSnapshotOverridesWin(t *testing.T) {
	cfg := base()
	opts, err := cfg.Snapshot(Overrides{
		Model: "llama3",
		Host:  "10.0.0.5",
		Port:  8080,
		Mode:  "generate",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if opts.Model != "llama3" {
		t.Errorf("model=%q, want %q", opts.Model, "llama3")
	}
	if opts.Host != "10.0.0.5" || opts.Port != 8080 {
		t.Errorf("endpoint=%s:%d, want 10.0.0.5:8080", opts.Host, opts.Port)
	}
	if opts.Mode != api.ModeGenerate {
		t.Errorf("mode=%q, want %q", opts.Mode, api.ModeGenerate)
	}

	// The snapshot is detached: mutating the config afterwards must not
	// reach it.
	cfg.Model = "changed"
	if opts.Model != "llama3" {
		t.Errorf("snapshot tracked config mutation: %q", opts.Model)
	}
}

func TestSnapshotURLWinsOverHostPort(t *testing.T) {
	opts, err := base().Snapshot(Overrides{URL: "https://llm.example.com"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := opts.Endpoint().StreamURL(api.ModeChat); got != "https://llm.example.com/api/chat" {
		t.Errorf("stream url=%q", got)
	}
}

func TestSnapshotRejectsUnknownMode(t *testing.T) {
	if _, err := base().Snapshot(Overrides{Mode: "batch"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSnapshotDebugSticky(t *testing.T) {
	cfg := base()
	cfg.Debug = true
	opts, err := cfg.Snapshot(Overrides{})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !opts.Debug {
		t.Error("config debug=true lost in snapshot")
	}
}

func TestResolveValue(t *testing.T) {
	t.Setenv("GENTERM_TEST_URL", "http://env.example:9999")

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"literal", "http://localhost:11434", "http://localhost:11434"},
		{"empty", "", ""},
		{"whitespace trimmed", "  http://h:1  ", "http://h:1"},
		{"braced env", "${GENTERM_TEST_URL}", "http://env.example:9999"},
		{"bare env", "$GENTERM_TEST_URL", "http://env.example:9999"},
		{"unset env", "${GENTERM_TEST_UNSET}", ""},
		{"command", "$(printf http://cmd.example:4321)", "http://cmd.example:4321"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveValue(tc.value)
			if err != nil {
				t.Fatalf("ResolveValue(%q): %v", tc.value, err)
			}
			if got != tc.want {
				t.Errorf("ResolveValue(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestResolveValueCommandFailure(t *testing.T) {
	if _, err := ResolveValue("$(exit 3)"); err == nil {
		t.Fatal("expected error from failing command")
	}
}
