package testutil

import (
	"context"
	"sync"

	"github.com/genterm/genterm/internal/proc"
)

// ScriptRunner plays back a scripted process. Chunks are delivered on a
// separate goroutine followed by exactly one exit event, the same shape the
// real shell runner produces. With HoldOpen set the stream stays open after
// the scripted chunks until the handle is killed or the context ends, which
// is how cancellation paths get exercised.
type ScriptRunner struct {
	Chunks   []string
	Code     int
	Stderr   string
	StartErr error
	HoldOpen bool

	mu       sync.Mutex
	commands []string
	kills    int
}

func (r *ScriptRunner) Start(ctx context.Context, command string, ev proc.Events) (proc.Handle, error) {
	r.mu.Lock()
	r.commands = append(r.commands, command)
	r.mu.Unlock()

	if r.StartErr != nil {
		return nil, r.StartErr
	}

	h := &scriptHandle{runner: r, killed: make(chan struct{})}
	go func() {
		code := r.Code
		delivered := true
		for _, chunk := range r.Chunks {
			select {
			case <-h.killed:
				delivered = false
			default:
			}
			if !delivered {
				break
			}
			if ev.Output != nil {
				ev.Output(chunk)
			}
		}
		if r.HoldOpen && delivered {
			select {
			case <-h.killed:
				delivered = false
			case <-ctx.Done():
				delivered = false
			}
		}
		if !delivered {
			code = -1
		}
		if ev.Exit != nil {
			ev.Exit(code, r.Stderr)
		}
	}()
	return h, nil
}

// Commands returns every command string the runner was started with.
func (r *ScriptRunner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

// Starts returns how many processes were spawned.
func (r *ScriptRunner) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// Kills returns how many Kill calls were made across all handles.
func (r *ScriptRunner) Kills() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kills
}

type scriptHandle struct {
	runner *ScriptRunner
	once   sync.Once
	killed chan struct{}
}

func (h *scriptHandle) Kill() {
	h.runner.mu.Lock()
	h.runner.kills++
	h.runner.mu.Unlock()
	h.once.Do(func() { close(h.killed) })
}
