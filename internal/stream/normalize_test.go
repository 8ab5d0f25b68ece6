package stream

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeDispatch(t *testing.T) {
	tests := []struct {
		name      string
		unit      string
		wantText  string
		wantHas   bool
		wantDone  bool
		wantMode  ContextMode
		wantToken string
	}{
		{
			name:     "chat style",
			unit:     `{"message":{"content":"hi"},"done":false}`,
			wantText: "hi",
			wantHas:  true,
			wantMode: ContextAppend,
		},
		{
			name:     "chat style done",
			unit:     `{"message":{"role":"assistant","content":""},"done":true}`,
			wantText: "",
			wantHas:  true,
			wantDone: true,
			wantMode: ContextAppend,
		},
		{
			name:     "choice delta",
			unit:     `{"choices":[{"delta":{"content":"yo"},"finish_reason":null}]}`,
			wantText: "yo",
			wantHas:  true,
			wantMode: ContextAppend,
		},
		{
			name:     "choice delta finish without content",
			unit:     `{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			wantHas:  false,
			wantDone: true,
			wantMode: ContextAppend,
		},
		{
			name:     "choice delta non-stop finish",
			unit:     `{"choices":[{"delta":{"content":"x"},"finish_reason":"length"}]}`,
			wantText: "x",
			wantHas:  true,
			wantDone: false,
			wantMode: ContextAppend,
		},
		{
			name:      "flat content",
			unit:      `{"content":"tok"}`,
			wantText:  "tok",
			wantHas:   true,
			wantMode:  ContextReplace,
			wantToken: `"tok"`,
		},
		{
			name:      "flat response with context",
			unit:      `{"response":"r","context":[1,2,3]}`,
			wantText:  "r",
			wantHas:   true,
			wantMode:  ContextReplace,
			wantToken: `[1,2,3]`,
		},
		{
			name:     "flat response without context",
			unit:     `{"response":"r","done":false}`,
			wantText: "r",
			wantHas:  true,
			wantMode: ContextNone,
		},
		{
			name:     "flat response done",
			unit:     `{"response":"","done":true,"context":[7]}`,
			wantText: "",
			wantHas:  true,
			wantDone: true,
			wantMode: ContextReplace, wantToken: `[7]`,
		},
		{
			name:     "sse prefix stripped",
			unit:     `data: {"choices":[{"delta":{"content":"s"},"finish_reason":null}]}`,
			wantText: "s",
			wantHas:  true,
			wantMode: ContextAppend,
		},
		{
			name:    "metadata only is a silent no-op",
			unit:    `{"model":"llama3","created_at":"2024-01-01T00:00:00Z","done":false}`,
			wantHas: false,
		},
		{
			name:    "unknown but valid shape is a silent no-op",
			unit:    `{"foo":{"bar":1}}`,
			wantHas: false,
		},
		{
			name:    "null content does not match flat content",
			unit:    `{"content":null,"done":false}`,
			wantHas: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Normalize(tt.unit)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.unit, err)
			}
			if d.Text != tt.wantText || d.HasText != tt.wantHas {
				t.Errorf("text = %q (has=%v), want %q (has=%v)", d.Text, d.HasText, tt.wantText, tt.wantHas)
			}
			if d.Done != tt.wantDone {
				t.Errorf("done = %v, want %v", d.Done, tt.wantDone)
			}
			if d.Mode != tt.wantMode {
				t.Errorf("mode = %v, want %v", d.Mode, tt.wantMode)
			}
			if string(d.Token) != tt.wantToken {
				t.Errorf("token = %q, want %q", d.Token, tt.wantToken)
			}
		})
	}
}

func TestNormalizeParseError(t *testing.T) {
	tests := []struct {
		name string
		unit string
	}{
		{name: "not json", unit: "garbage"},
		{name: "truncated object", unit: `{"message":{"content":"hi"`},
		{name: "sse done terminator", unit: "data: [DONE]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.unit)
			if err == nil {
				t.Fatalf("Normalize(%q) = nil error, want ParseError", tt.unit)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Normalize(%q) error = %T, want *ParseError", tt.unit, err)
			}
			if pe.Unit != tt.unit {
				t.Errorf("ParseError.Unit = %q, want %q", pe.Unit, tt.unit)
			}
		})
	}
}

func TestNormalizeStats(t *testing.T) {
	unit := `{"message":{"content":""},"done":true,"prompt_eval_count":12,"eval_count":50,"eval_duration":2000000000}`
	d, err := Normalize(unit)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if d.Stats == nil {
		t.Fatal("Stats = nil, want counters")
	}
	if d.Stats.PromptTokens != 12 || d.Stats.OutputTokens != 50 {
		t.Errorf("Stats = %+v, want prompt 12, output 50", d.Stats)
	}
	if d.Stats.EvalDuration != 2*time.Second {
		t.Errorf("EvalDuration = %v, want 2s", d.Stats.EvalDuration)
	}
	if got := d.Stats.TokensPerSec(); got != 25 {
		t.Errorf("TokensPerSec() = %v, want 25", got)
	}

	d, err = Normalize(`{"message":{"content":"hi"},"done":false}`)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if d.Stats != nil {
		t.Errorf("Stats = %+v, want nil for mid-stream unit", d.Stats)
	}
}
