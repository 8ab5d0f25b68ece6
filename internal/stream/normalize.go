package stream

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContextMode says how a delta's context fragment applies to conversation
// state: appended to the running transcript, or replacing the opaque
// continuation token wholesale.
type ContextMode int

const (
	ContextNone ContextMode = iota
	ContextAppend
	ContextReplace
)

// Stats carries the token counters Ollama attaches to final units. Zero for
// providers that do not report them.
type Stats struct {
	PromptTokens int
	OutputTokens int
	EvalDuration time.Duration
}

// TokensPerSec reports generation speed, or 0 when no duration was reported.
func (s Stats) TokensPerSec() float64 {
	if s.EvalDuration <= 0 {
		return 0
	}
	return float64(s.OutputTokens) / s.EvalDuration.Seconds()
}

// Delta is the normalized form of one streamed unit. HasText distinguishes
// "no renderable content this tick" from an empty text delta. Token is set
// only when Mode is ContextReplace.
type Delta struct {
	Text    string
	HasText bool
	Done    bool
	Mode    ContextMode
	Token   json.RawMessage
	Stats   *Stats
}

// ParseError reports a unit that failed structural decode. The raw unit is
// kept so callers can surface the offending text to the user.
type ParseError struct {
	Unit string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed stream unit %q: %v", e.Unit, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ssePrefix frames each unit on OpenAI-compatible servers.
const ssePrefix = "data: "

// wireUnit is the superset of fields across every provider shape. Pointer
// fields distinguish absent from empty so dispatch can check presence.
type wireUnit struct {
	Message *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	Done    bool `json:"done"`
	Choices []struct {
		Delta *struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Content  json.RawMessage `json:"content"`
	Response *string         `json:"response"`
	Context  json.RawMessage `json:"context"`

	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
	EvalDuration    int64 `json:"eval_duration"`
}

func (w *wireUnit) stats() *Stats {
	if w.EvalCount == 0 && w.PromptEvalCount == 0 {
		return nil
	}
	return &Stats{
		PromptTokens: w.PromptEvalCount,
		OutputTokens: w.EvalCount,
		EvalDuration: time.Duration(w.EvalDuration),
	}
}

// Normalize parses one reassembled unit into a Delta. An optional SSE
// "data: " prefix is stripped first. Dispatch tries each known provider
// shape in fixed precedence order; a unit that is valid JSON but matches
// none of them normalizes to a no-op Delta rather than an error. Note that
// the "data: [DONE]" terminator some OpenAI-compatible servers send is not
// valid JSON and comes back as a ParseError.
func Normalize(unit string) (Delta, error) {
	payload := strings.TrimPrefix(unit, ssePrefix)

	var w wireUnit
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return Delta{}, &ParseError{Unit: unit, Err: err}
	}

	d := Delta{Stats: w.stats()}
	switch {
	case w.Message != nil && w.Message.Content != nil:
		// Ollama /api/chat
		d.Text = *w.Message.Content
		d.HasText = true
		d.Done = w.Done
		d.Mode = ContextAppend

	case len(w.Choices) > 0 && w.Choices[0].Delta != nil:
		// OpenAI-compatible /v1/chat/completions
		choice := w.Choices[0]
		if choice.Delta.Content != nil {
			d.Text = *choice.Delta.Content
			d.HasText = true
		}
		d.Done = choice.FinishReason != nil && *choice.FinishReason == "stop"
		d.Mode = ContextAppend

	case isJSONString(w.Content):
		// Flat content: the field doubles as the continuation token.
		var text string
		if err := json.Unmarshal(w.Content, &text); err == nil {
			d.Text = text
			d.HasText = true
		}
		d.Done = w.Done
		d.Mode = ContextReplace
		d.Token = w.Content

	case w.Response != nil:
		// Ollama /api/generate
		d.Text = *w.Response
		d.HasText = true
		d.Done = w.Done
		if len(w.Context) > 0 && string(w.Context) != "null" {
			d.Mode = ContextReplace
			d.Token = w.Context
		}
	}
	return d, nil
}

func isJSONString(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '"'
}
