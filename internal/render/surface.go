package render

import (
	"strings"
	"sync"
)

// Target is a live, append-only text sink with a closable lifecycle.
// Every operation no-ops once the target is closed.
type Target interface {
	Append(lines []string)
	AppendText(text string)
	Close()
	Closed() bool
}

// Surface is the append-only content store behind the live views. Appends
// land at the current end of content: the first element of a batch
// continues the last line, later elements start new ones. Content is
// read-only except inside an append, mirroring the guarded-buffer
// convention of the editor surface this tool grew out of.
type Surface struct {
	mu         sync.Mutex
	lines      []string
	modifiable bool
	closed     bool
	onChange   func()
}

// NewSurface returns an empty open surface.
func NewSurface() *Surface {
	return &Surface{lines: []string{""}}
}

// OnChange registers a hook invoked after every append and on close. Live
// views use it to wake their event loop; the hook must not call back into
// the surface's own append path.
func (s *Surface) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Append writes lines at the end of the content and leaves the surface
// read-only again afterwards. A closed surface ignores the call.
func (s *Surface) Append(lines []string) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.modifiable = true
	last := len(s.lines) - 1
	s.lines[last] += lines[0]
	s.lines = append(s.lines, lines[1:]...)
	s.modifiable = false
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// AppendText splits text on newlines and appends it.
func (s *Surface) AppendText(text string) {
	s.Append(strings.Split(text, "\n"))
}

// Close tears the surface down. Idempotent: closing an already-closed
// surface does nothing.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Closed reports whether the surface has been torn down.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Modifiable reports the write toggle; it is only ever true inside an
// append.
func (s *Surface) Modifiable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifiable
}

// Lines returns a copy of the current content.
func (s *Surface) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Content returns the current content as one string.
func (s *Surface) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}
