package stream

import (
	"encoding/json"
	"strings"
)

// Turn is one role-tagged message in a chat transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Context accumulates conversation state across requests. Chat providers
// build an ordered transcript of Turns; completion providers hand back an
// opaque continuation token instead. The two are mutually exclusive: the
// first context-carrying delta fixes the mode, and later deltas of the
// other kind are ignored.
//
// The scratch buffer holds the in-flight assistant text for the current
// stream only. It is committed as a single Turn when a done delta arrives
// and must be reset on session teardown so a cancelled stream never leaks a
// partial turn into the next request.
type Context struct {
	mode    ContextMode
	turns   []Turn
	token   json.RawMessage
	scratch strings.Builder
}

// AppendUserTurn records the outbound user message before a request is sent.
func (c *Context) AppendUserTurn(text string) {
	c.turns = append(c.turns, Turn{Role: RoleUser, Content: text})
}

// ApplyDelta folds one normalized delta into the accumulated state.
func (c *Context) ApplyDelta(d Delta) {
	switch d.Mode {
	case ContextAppend:
		if c.mode == ContextNone {
			c.mode = ContextAppend
		}
		if c.mode != ContextAppend {
			return
		}
		if d.HasText {
			c.scratch.WriteString(d.Text)
		}
		if d.Done {
			c.turns = append(c.turns, Turn{Role: RoleAssistant, Content: c.scratch.String()})
			c.scratch.Reset()
		}
	case ContextReplace:
		if c.mode == ContextNone {
			c.mode = ContextReplace
		}
		if c.mode != ContextReplace {
			return
		}
		c.token = d.Token
	}
}

// ResetScratch drops any uncommitted assistant text.
func (c *Context) ResetScratch() { c.scratch.Reset() }

// Clear resets the conversation entirely, including the mode.
func (c *Context) Clear() {
	c.mode = ContextNone
	c.turns = nil
	c.token = nil
	c.scratch.Reset()
}

// Mode reports which kind of context the conversation settled on.
func (c *Context) Mode() ContextMode { return c.mode }

// Turns returns the committed transcript in chronological order.
func (c *Context) Turns() []Turn { return c.turns }

// Token returns the opaque continuation token, nil if none was received.
func (c *Context) Token() json.RawMessage { return c.token }

// Scratch returns the uncommitted assistant text for the in-flight stream.
func (c *Context) Scratch() string { return c.scratch.String() }

// Empty reports whether the conversation holds no state at all.
func (c *Context) Empty() bool {
	return c.mode == ContextNone && len(c.turns) == 0 && c.token == nil && c.scratch.Len() == 0
}
