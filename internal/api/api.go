package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/genterm/genterm/internal/stream"
)

// Mode selects which endpoint family a session talks to.
type Mode string

const (
	// ModeChat streams chat-style units from an Ollama /api/chat server.
	ModeChat Mode = "chat"
	// ModeGenerate streams flat-response units with an opaque context
	// token from /api/generate.
	ModeGenerate Mode = "generate"
	// ModeOpenAI streams choice-delta units from an OpenAI-compatible
	// /v1/chat/completions server.
	ModeOpenAI Mode = "openai"
)

// Valid reports whether m names a known endpoint mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeGenerate, ModeOpenAI:
		return true
	}
	return false
}

// Endpoint locates one upstream server. URL, when set, wins over Host/Port.
type Endpoint struct {
	Host string
	Port int
	URL  string
}

// BaseURL returns the server root the endpoint paths are appended to.
func (e Endpoint) BaseURL() string {
	if e.URL != "" {
		return strings.TrimRight(e.URL, "/")
	}
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// StreamURL returns the streaming endpoint for the given mode.
func (e Endpoint) StreamURL(mode Mode) string {
	switch mode {
	case ModeGenerate:
		return e.BaseURL() + "/api/generate"
	case ModeOpenAI:
		return e.BaseURL() + "/v1/chat/completions"
	default:
		return e.BaseURL() + "/api/chat"
	}
}

// ModelsURL returns the installed-models listing endpoint.
func (e Endpoint) ModelsURL() string { return e.BaseURL() + "/api/tags" }

// ChatBody builds the request payload for chat-style endpoints. The full
// transcript rides along so the server sees the whole conversation.
func ChatBody(model string, turns []stream.Turn) ([]byte, error) {
	payload := struct {
		Model    string        `json:"model"`
		Messages []stream.Turn `json:"messages"`
		Stream   bool          `json:"stream"`
	}{Model: model, Messages: turns, Stream: true}
	return json.Marshal(payload)
}

// GenerateBody builds the completion-endpoint payload. token, when present,
// seeds the provider-opaque conversation state from the prior turn.
func GenerateBody(model, prompt string, token json.RawMessage) ([]byte, error) {
	payload := struct {
		Model   string          `json:"model"`
		Prompt  string          `json:"prompt"`
		Stream  bool            `json:"stream"`
		Context json.RawMessage `json:"context,omitempty"`
	}{Model: model, Prompt: prompt, Stream: true, Context: token}
	return json.Marshal(payload)
}

// DefaultCommand mirrors a hand-typed curl streaming invocation.
const DefaultCommand = `curl --silent --no-buffer -X POST $url -d $body`

// DefaultListCommand fetches a non-streaming endpoint.
const DefaultListCommand = `curl --silent $url`

// ExpandCommand substitutes $url and $body placeholders in a command
// template. The body is single-quote escaped for the shell; $url is
// replaced first so a prompt that happens to contain the placeholder text
// is never expanded.
func ExpandCommand(template, url string, body []byte) string {
	cmd := strings.ReplaceAll(template, "$url", url)
	cmd = strings.ReplaceAll(cmd, "$body", shellQuote(string(body)))
	return cmd
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
