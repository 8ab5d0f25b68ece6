// Package debuglog writes per-session JSONL traces for debugging streamed
// requests. Logging is off unless the user opts in, and a nil *Logger
// discards everything so call sites never need to guard.
package debuglog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger appends one JSON object per line to a session trace file.
type Logger struct {
	mu   sync.Mutex
	w    io.WriteCloser
	id   string
	path string
}

// Open creates a trace file under dir and returns a logger bound to it.
// The file name carries a timestamp and a short session id so concurrent
// runs never collide.
func Open(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	id := uuid.NewString()[:8]
	name := fmt.Sprintf("genterm-%s-%s.jsonl", time.Now().Format("20060102-150405"), id)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	return &Logger{w: f, id: id, path: path}, nil
}

// NewWriter returns a logger that writes to w. Used by tests.
func NewWriter(w io.WriteCloser, id string) *Logger {
	return &Logger{w: w, id: id}
}

// Path returns the trace file location, or "" for writer-backed loggers.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Event records one entry. Extra fields ride in kv and must be
// JSON-encodable; entries that fail to encode are dropped.
func (l *Logger) Event(event string, kv map[string]any) {
	if l == nil {
		return
	}
	entry := map[string]any{
		"ts":      time.Now().Format(time.RFC3339Nano),
		"session": l.id,
		"event":   event,
	}
	for k, v := range kv {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(append(data, '\n'))
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
