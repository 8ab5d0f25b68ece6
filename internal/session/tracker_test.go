package session

import (
	"context"
	"testing"

	"github.com/genterm/genterm/internal/api"
	"github.com/genterm/genterm/internal/render"
	"github.com/genterm/genterm/internal/testutil"
)

func startHeldSession(t *testing.T, runner *testutil.ScriptRunner) *Session {
	t.Helper()
	sess := New(Options{
		Model:    "mistral",
		Mode:     api.ModeChat,
		Endpoint: testEndpoint(),
		Prompt:   "question",
		Runner:   runner,
		Target:   render.NewSurface(),
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return sess
}

func TestTrackerBeginCancelsPredecessor(t *testing.T) {
	var tr Tracker

	r1 := &testutil.ScriptRunner{HoldOpen: true}
	s1 := startHeldSession(t, r1)
	tr.Begin(s1)

	r2 := &testutil.ScriptRunner{HoldOpen: true}
	s2 := startHeldSession(t, r2)
	tr.Begin(s2)

	res := awaitResult(t, s1)
	if res.State != Cancelled {
		t.Errorf("predecessor state = %s, want %s", res.State, Cancelled)
	}
	if r1.Kills() != 1 {
		t.Errorf("predecessor kills = %d, want 1", r1.Kills())
	}
	if tr.Active() != s2 {
		t.Error("Active() should be the newest session")
	}
	if r2.Kills() != 0 {
		t.Errorf("successor kills = %d, want 0", r2.Kills())
	}

	tr.CancelActive()
	awaitResult(t, s2)
}

func TestTrackerCancelActive(t *testing.T) {
	var tr Tracker

	runner := &testutil.ScriptRunner{HoldOpen: true}
	sess := startHeldSession(t, runner)
	tr.Begin(sess)

	tr.CancelActive()
	res := awaitResult(t, sess)
	if res.State != Cancelled {
		t.Errorf("State = %s, want %s", res.State, Cancelled)
	}
	if tr.Active() != nil {
		t.Error("Active() should be nil after CancelActive")
	}

	// Nothing registered is a no-op.
	tr.CancelActive()
}
