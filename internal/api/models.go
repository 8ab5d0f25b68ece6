package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genterm/genterm/internal/proc"
)

// Model is one entry from the models listing endpoint. Only Name is
// guaranteed; the rest is decoration for the picker.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ErrEmptyUpstream reports a models listing that returned no data at all.
var ErrEmptyUpstream = errors.New("models endpoint returned an empty response")

// DecodeError reports a models listing body that failed structural decode.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	body := e.Body
	if len(body) > 120 {
		body = body[:120] + "..."
	}
	return fmt.Sprintf("could not decode models listing %q: %v", body, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ListModels fetches the models listing through the runner. The response is
// fully buffered and decoded once, never streamed. Any failure comes back
// as the error next to a nil list; callers print one diagnostic and carry
// on with the empty list.
func ListModels(ctx context.Context, r proc.Runner, ep Endpoint, command string) ([]Model, error) {
	if command == "" {
		command = DefaultListCommand
	}
	out, err := proc.RunBuffered(ctx, r, strings.ReplaceAll(command, "$url", ep.ModelsURL()))
	if err != nil {
		return nil, fmt.Errorf("models listing failed: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, ErrEmptyUpstream
	}

	var payload struct {
		Models []Model `json:"models"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, &DecodeError{Body: out, Err: err}
	}
	return payload.Models, nil
}
