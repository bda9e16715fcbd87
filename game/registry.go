package game

import (
	"sync"

	"github.com/The1Divider/Bathbot/domain"
)

type sessionState int

const (
	stateSetup sessionState = iota
	stateRunning
)

// session is one registry entry. Its mutex serializes every operation on
// the channel it belongs to; operations on different channels share nothing
// but the brief map lookups.
type session struct {
	mu     sync.Mutex
	gone   bool
	state  sessionState
	setup  Setup
	handle *Handle
}

// Registry maps channel ids to their game session, enforcing at most one
// session per channel. A channel moves Setup -> Running -> absent, or is
// removed straight from Setup when cancelled.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

func (r *Registry) get(channel string) *session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[channel]
}

// removeIf deletes the entry for channel only if it still is s, so a stale
// caller can never evict a session created after its own.
func (r *Registry) removeIf(channel string, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[channel] == s {
		delete(r.sessions, channel)
	}
}

// Create adds a Setup entry owned by owner. Exactly one concurrent caller
// wins; the rest get ErrSessionExists.
func (r *Registry) Create(channel, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[channel]; exists {
		return domain.ErrSessionExists
	}

	r.sessions[channel] = &session{
		state: stateSetup,
		setup: Setup{Owner: owner, Difficulty: domain.DifficultyNormal},
	}

	return nil
}

// MutateSetup applies fn to the setup of channel if it is still being
// configured and user is its owner.
func (r *Registry) MutateSetup(channel, user string, fn func(*Setup)) error {
	s := r.get(channel)
	if s == nil {
		return domain.ErrNoSetup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone || s.state != stateSetup {
		return domain.ErrNoSetup
	}
	if s.setup.Owner != user {
		return domain.ErrNotSetupOwner
	}

	fn(&s.setup)

	return nil
}

// PeekSetup returns a copy of the setup for channel, if it is in setup.
func (r *Registry) PeekSetup(channel string) (Setup, bool) {
	s := r.get(channel)
	if s == nil {
		return Setup{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone || s.state != stateSetup {
		return Setup{}, false
	}

	return s.setup, true
}

// CancelSetup removes a channel's setup entry. Only the owner may cancel.
func (r *Registry) CancelSetup(channel, user string) error {
	s := r.get(channel)
	if s == nil {
		return domain.ErrNoSetup
	}

	s.mu.Lock()
	if s.gone || s.state != stateSetup {
		s.mu.Unlock()
		return domain.ErrNoSetup
	}
	if s.setup.Owner != user {
		s.mu.Unlock()
		return domain.ErrNotSetupOwner
	}
	s.gone = true
	s.mu.Unlock()

	r.removeIf(channel, s)

	return nil
}

// BeginRunning transitions channel from Setup to Running. start is invoked
// with the final setup while the entry is held, so no other caller can
// observe a half-completed transition; it must spawn the loop and return its
// handle. If start fails the entry is removed.
func (r *Registry) BeginRunning(channel, user string, start func(Setup) (*Handle, error)) error {
	s := r.get(channel)
	if s == nil {
		return domain.ErrNoSetup
	}

	s.mu.Lock()

	if s.gone || s.state != stateSetup {
		s.mu.Unlock()
		return domain.ErrNoSetup
	}
	if s.setup.Owner != user {
		s.mu.Unlock()
		return domain.ErrNotSetupOwner
	}

	handle, err := start(s.setup)
	if err != nil {
		s.gone = true
		s.mu.Unlock()
		r.removeIf(channel, s)
		return err
	}

	s.state = stateRunning
	s.handle = handle
	s.mu.Unlock()

	return nil
}

// RunningHandle returns the control handle of channel's active loop.
func (r *Registry) RunningHandle(channel string) (*Handle, error) {
	s := r.get(channel)
	if s == nil {
		return nil, domain.ErrNoActiveLoop
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone || s.state != stateRunning {
		return nil, domain.ErrNoActiveLoop
	}

	return s.handle, nil
}

// RemoveRunning clears the entry for channel if it still belongs to the
// loop identified by handle. Called by the loop itself on termination.
func (r *Registry) RemoveRunning(channel string, handle *Handle) {
	s := r.get(channel)
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.state != stateRunning || s.handle != handle {
		s.mu.Unlock()
		return
	}
	s.gone = true
	s.mu.Unlock()

	r.removeIf(channel, s)
}
