package session

import "sync"

// Tracker enforces the single-active-session rule. Registering a new
// session tears the previous one down first, so a stray stream can never
// write into a fresh target.
type Tracker struct {
	mu     sync.Mutex
	active *Session
}

// Begin registers s as the active session, cancelling any predecessor.
func (t *Tracker) Begin(s *Session) {
	t.mu.Lock()
	prev := t.active
	t.active = s
	t.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
}

// CancelActive tears down the registered session, if any.
func (t *Tracker) CancelActive() {
	t.mu.Lock()
	active := t.active
	t.active = nil
	t.mu.Unlock()
	if active != nil {
		active.Cancel()
	}
}

// Active returns the registered session, nil when none.
func (t *Tracker) Active() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
