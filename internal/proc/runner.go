package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Events receives a process's output and termination. Output is invoked
// with raw stdout fragments whose boundaries are whatever the pipe read
// returned, deliberately unaligned with any message framing. Exit fires
// exactly once after output ends, carrying the exit code and a bounded tail
// of stderr. Both callbacks run on the runner's delivery goroutine, in
// strict arrival order, Exit last.
type Events struct {
	Output func(chunk string)
	Exit   func(code int, stderr string)
}

// Handle controls a started process.
type Handle interface {
	// Kill terminates the process immediately. Exit still fires exactly
	// once.
	Kill()
}

// Runner spawns the external network client command.
type Runner interface {
	Start(ctx context.Context, command string, ev Events) (Handle, error)
}

// Shell runs commands through "sh -c", the same way an interactive user
// would invoke curl. Cancelling the context kills the process.
type Shell struct{}

func (Shell) Start(ctx context.Context, command string, ev Events) (Handle, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", command, err)
	}

	p := &process{cmd: cmd}

	go func() {
		tail := &tailBuffer{limit: 4096}
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			io.Copy(tail, stderr)
		}()

		buf := make([]byte, 32*1024)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 && ev.Output != nil {
				ev.Output(string(buf[:n]))
			}
			if readErr != nil {
				break
			}
		}
		<-drained

		code := 0
		if waitErr := cmd.Wait(); waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				code = -1
			}
		}
		if ev.Exit != nil {
			ev.Exit(code, tail.String())
		}
	}()

	return p, nil
}

type process struct {
	cmd      *exec.Cmd
	killOnce sync.Once
}

func (p *process) Kill() {
	p.killOnce.Do(func() {
		if p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
	})
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return strings.TrimSpace(string(t.buf)) }

// RunBuffered runs command to completion and returns everything it wrote to
// stdout. Non-streaming endpoints use this; a non-zero exit becomes an
// error carrying the stderr tail.
func RunBuffered(ctx context.Context, r Runner, command string) (string, error) {
	type exit struct {
		code   int
		stderr string
	}

	var out strings.Builder
	exited := make(chan exit, 1)
	_, err := r.Start(ctx, command, Events{
		Output: func(chunk string) { out.WriteString(chunk) },
		Exit:   func(code int, stderr string) { exited <- exit{code, stderr} },
	})
	if err != nil {
		return "", err
	}

	select {
	case e := <-exited:
		if e.code != 0 {
			if e.stderr != "" {
				return "", fmt.Errorf("command exited with status %d: %s", e.code, e.stderr)
			}
			return "", fmt.Errorf("command exited with status %d", e.code)
		}
		return out.String(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
