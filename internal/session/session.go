// Package session drives one streamed request from spawn to a terminal
// state. A session owns its transport process and render target for the
// duration of the stream; conversation context is shared across sessions
// and only borrowed here.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/genterm/genterm/internal/api"
	"github.com/genterm/genterm/internal/debuglog"
	"github.com/genterm/genterm/internal/doc"
	"github.com/genterm/genterm/internal/proc"
	"github.com/genterm/genterm/internal/prompt"
	"github.com/genterm/genterm/internal/render"
	"github.com/genterm/genterm/internal/stream"
)

// State names a point in the session lifecycle.
type State int

const (
	Idle State = iota
	Starting
	Streaming
	Completing
	Closed
	Cancelled
	Failed
)

var stateNames = [...]string{
	Idle:       "idle",
	Starting:   "starting",
	Streaming:  "streaming",
	Completing: "completing",
	Closed:     "closed",
	Cancelled:  "cancelled",
	Failed:     "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	switch s {
	case Closed, Cancelled, Failed:
		return true
	}
	return false
}

// ErrNoMatch reports that the extraction pattern found nothing in the
// completed response, so the attached document was left untouched.
var ErrNoMatch = errors.New("no extractable block in response")

// Result is delivered on Done once the session reaches a terminal state.
// Text holds whatever response text accumulated, including on failure and
// cancellation.
type Result struct {
	State State
	Text  string
	Stats *stream.Stats
	Err   error
}

// Options snapshots everything a session needs at creation time.
type Options struct {
	Model    string
	Mode     api.Mode
	Endpoint api.Endpoint

	// Command is the spawn template with $url and $body placeholders.
	// Empty means api.DefaultCommand.
	Command string

	// Prompt is the fully expanded prompt for this turn.
	Prompt string

	// Extract, when set, selects the block that replaces the document
	// selection. Nil with a Document set replaces with the whole response.
	Extract *regexp.Regexp

	// Document, when set, receives the response as a region replacement
	// after a clean exit.
	Document doc.Document

	// NoAutoClose leaves the render target open after completion.
	NoAutoClose bool

	Runner proc.Runner

	// Target receives streamed output. When nil, OpenTarget is invoked on
	// the first delivered chunk, so nothing is ever rendered for a request
	// that dies before producing output.
	Target     render.Target
	OpenTarget func() render.Target

	// Context is the shared conversation state. Sessions borrow it; nil
	// gets a private throwaway one.
	Context *stream.Context

	Log *debuglog.Logger
}

// Session is a single streamed request. Create with New, drive with Start,
// and read the terminal Result from Done. All methods are safe for
// concurrent use; process events and user cancellation race freely.
type Session struct {
	opts Options

	mu     sync.Mutex
	state  State
	target render.Target
	handle proc.Handle
	reasm  stream.Reassembler
	text   strings.Builder
	stats  *stream.Stats

	once sync.Once
	done chan Result
}

func New(opts Options) *Session {
	if opts.Context == nil {
		opts.Context = &stream.Context{}
	}
	if opts.Command == "" {
		opts.Command = api.DefaultCommand
	}
	return &Session{opts: opts, target: opts.Target, done: make(chan Result, 1)}
}

// Start encodes the request and spawns the transport process. The user
// turn is recorded in the shared context first so the outbound transcript
// includes it. A Start error leaves the render target and document
// untouched; the session is then terminal and Done has delivered.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", state)
	}
	s.state = Starting
	s.mu.Unlock()

	url := s.opts.Endpoint.StreamURL(s.opts.Mode)
	var body []byte
	var err error
	if s.opts.Mode == api.ModeGenerate {
		body, err = api.GenerateBody(s.opts.Model, s.opts.Prompt, s.opts.Context.Token())
	} else {
		s.opts.Context.AppendUserTurn(s.opts.Prompt)
		body, err = api.ChatBody(s.opts.Model, s.opts.Context.Turns())
	}
	if err != nil {
		return s.abort(fmt.Errorf("encoding request body: %w", err))
	}

	command := api.ExpandCommand(s.opts.Command, url, body)
	s.opts.Log.Event("session.start", map[string]any{
		"model": s.opts.Model,
		"mode":  string(s.opts.Mode),
		"url":   url,
	})

	handle, err := s.opts.Runner.Start(ctx, command, proc.Events{
		Output: s.onOutput,
		Exit:   s.onExit,
	})
	if err != nil {
		return s.abort(fmt.Errorf("spawning request process: %w", err))
	}

	s.mu.Lock()
	s.handle = handle
	cancelled := s.state == Cancelled
	s.mu.Unlock()
	// Cancel may have run before the handle landed; it found nothing to
	// kill, so kill here.
	if cancelled {
		handle.Kill()
	}
	return nil
}

// abort marks the session failed before any output was delivered.
func (s *Session) abort(err error) error {
	s.mu.Lock()
	s.state = Failed
	s.mu.Unlock()
	s.opts.Log.Event("session.fail", map[string]any{"error": err.Error()})
	s.finish(Result{State: Failed, Err: err})
	return err
}

// onOutput receives raw stdout chunks from the transport process, in
// order, on the runner's delivery goroutine.
func (s *Session) onOutput(chunk string) {
	s.mu.Lock()
	switch s.state {
	case Starting:
		s.state = Streaming
		if s.target == nil && s.opts.OpenTarget != nil {
			s.target = s.opts.OpenTarget()
		}
	case Streaming:
	default:
		// Late output from a process that lost the race with Cancel.
		s.mu.Unlock()
		return
	}

	var (
		texts    []string
		bad      string
		parseErr error
	)
	for _, unit := range s.reasm.Feed(chunk) {
		s.opts.Log.Event("session.unit", map[string]any{"raw": unit})
		delta, err := stream.Normalize(unit)
		if err != nil {
			bad, parseErr = unit, err
			break
		}
		s.opts.Context.ApplyDelta(delta)
		if delta.HasText {
			s.text.WriteString(delta.Text)
			texts = append(texts, delta.Text)
		}
		if delta.Stats != nil {
			s.stats = delta.Stats
		}
	}
	if parseErr != nil {
		s.state = Failed
	}
	target := s.target
	handle := s.handle
	text := s.text.String()
	stats := s.stats
	s.mu.Unlock()

	// Append outside the lock: targets run their own change hooks.
	if target != nil {
		for _, t := range texts {
			target.AppendText(t)
		}
	}
	if parseErr == nil {
		return
	}

	s.opts.Log.Event("session.fail", map[string]any{"unit": bad, "error": parseErr.Error()})
	if target != nil {
		target.Append(errorBlock("malformed stream unit", bad))
	}
	s.opts.Context.ResetScratch()
	if handle != nil {
		handle.Kill()
	}
	s.finish(Result{State: Failed, Text: text, Stats: stats, Err: parseErr})
}

// onExit receives the exactly-once exit event after all output.
func (s *Session) onExit(code int, stderr string) {
	s.mu.Lock()
	if s.state.Terminal() {
		// Already cancelled or failed; this is the kill confirmation.
		s.mu.Unlock()
		return
	}

	if code != 0 {
		s.state = Failed
		target := s.target
		text := s.text.String()
		stats := s.stats
		s.mu.Unlock()

		detail := strings.TrimSpace(stderr)
		err := fmt.Errorf("request process exited with status %d", code)
		if detail != "" {
			err = fmt.Errorf("request process exited with status %d: %s", code, detail)
		}
		s.opts.Log.Event("session.exit", map[string]any{"code": code, "stderr": detail})
		// Keep whatever rendered; the target stays open so the partial
		// output and the failure are both visible.
		if target != nil && detail != "" {
			target.Append(errorBlock("request failed", detail))
		}
		s.opts.Context.ResetScratch()
		s.finish(Result{State: Failed, Text: text, Stats: stats, Err: err})
		return
	}

	s.state = Completing
	res, closeTarget := s.completeLocked()
	s.state = res.State
	target := s.target
	s.mu.Unlock()

	s.opts.Log.Event("session.exit", map[string]any{"code": 0, "state": res.State.String()})
	if closeTarget && target != nil {
		target.Close()
	}
	s.finish(res)
}

// completeLocked runs the post-stream step: optional extraction, then
// document replacement. Called with the lock held, in state Completing.
// The second return says whether the render target should close.
func (s *Session) completeLocked() (Result, bool) {
	// Normally a no-op: the done delta already committed the scratch turn.
	// Guards against streams that end without one.
	s.opts.Context.ResetScratch()

	text := s.text.String()
	res := Result{State: Closed, Text: text, Stats: s.stats}

	if s.opts.Document != nil {
		lines := wholeLines(text)
		if s.opts.Extract != nil {
			extracted, ok := prompt.ExtractLines(s.opts.Extract, text)
			if !ok {
				res.State = Failed
				res.Err = ErrNoMatch
				return res, !s.opts.NoAutoClose
			}
			lines = extracted
		}
		if err := s.opts.Document.Replace(lines); err != nil {
			res.State = Failed
			res.Err = fmt.Errorf("replacing selection: %w", err)
			return res, false
		}
	}
	return res, !s.opts.NoAutoClose
}

// Cancel tears the session down from any non-terminal state: kill the
// process, drop reassembly and scratch state, close the target. Idempotent;
// the process's own exit notification afterwards is ignored.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = Cancelled
	handle := s.handle
	target := s.target
	text := s.text.String()
	stats := s.stats
	s.reasm.Reset()
	s.mu.Unlock()

	s.opts.Context.ResetScratch()
	if handle != nil {
		handle.Kill()
	}
	if target != nil {
		target.Close()
	}
	s.opts.Log.Event("session.cancel", nil)
	s.finish(Result{State: Cancelled, Text: text, Stats: stats})
}

// Done delivers the terminal Result exactly once. The channel is buffered,
// so the session never blocks on an absent reader.
func (s *Session) Done() <-chan Result { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) finish(res Result) {
	s.once.Do(func() { s.done <- res })
}

func errorBlock(title, detail string) []string {
	lines := []string{"", "=== " + title + " ==="}
	lines = append(lines, strings.Split(strings.TrimRight(detail, "\n"), "\n")...)
	return append(lines, "===")
}

func wholeLines(text string) []string {
	return strings.Split(strings.TrimSpace(text), "\n")
}
