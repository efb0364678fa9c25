package goSession

import "github.com/MrEthical07/goSession/session"

// Phase is the lifecycle position of a request's session.
type Phase uint8

const (
	// PhaseNoSession means no valid session cookie arrived.
	PhaseNoSession Phase = iota
	// PhaseLoaded means a record was loaded but carries no live principal.
	PhaseLoaded
	// PhaseAuthenticated means the record's principal resolved to a live account.
	PhaseAuthenticated
	// PhaseDestroyed means the session was signed out during this request.
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "no-session"
	}
}

// State is the session of one in-flight request. It is created by
// Engine.Load, mutated by the Engine's operations, and flushed to the
// response by Engine.Commit. A State must not be shared across requests.
type State struct {
	phase     Phase
	record    *session.Record
	principal *Principal

	// token is the signed id the client holds or will hold after Commit.
	token string

	issued    bool
	cleared   bool
	dirty     bool
	committed bool

	pending map[string]string
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase {
	if s == nil {
		return PhaseNoSession
	}
	return s.phase
}

// Principal returns the authenticated principal, or nil.
func (s *State) Principal() *Principal {
	if s == nil || s.phase != PhaseAuthenticated {
		return nil
	}
	return s.principal
}

// Authenticated reports whether a live principal is attached.
func (s *State) Authenticated() bool {
	return s.Principal() != nil
}

// ID returns the session id, or "" when there is no session.
func (s *State) ID() string {
	if s == nil || s.record == nil {
		return ""
	}
	return s.record.ID
}

// Token returns the signed session token the client should present on its
// next request, or "" when there is none.
func (s *State) Token() string {
	if s == nil || s.phase == PhaseDestroyed {
		return ""
	}
	return s.token
}

// Persistent reports whether the session was established with remember-me.
func (s *State) Persistent() bool {
	return s != nil && s.record != nil && s.record.Persistent
}

// Get reads a value from the session bag.
func (s *State) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if v, ok := s.pending[key]; ok {
		return v, true
	}
	if s.record == nil {
		return "", false
	}
	v, ok := s.record.Values[key]
	return v, ok
}

// Set writes a value into the session bag. The change is persisted by
// Engine.Save, which mints an anonymous session if none exists yet.
func (s *State) Set(key, value string) {
	if s == nil {
		return
	}
	if s.pending == nil {
		s.pending = make(map[string]string, 1)
	}
	s.pending[key] = value
	s.dirty = true
}

// values merges the record's bag with pending writes.
func (s *State) values() map[string]string {
	var base map[string]string
	if s.record != nil {
		base = s.record.Values
	}
	if len(base) == 0 && len(s.pending) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(s.pending))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range s.pending {
		out[k] = v
	}
	return out
}

func (s *State) reset(phase Phase) {
	s.phase = phase
	s.record = nil
	s.principal = nil
	s.token = ""
	s.issued = false
	s.dirty = false
	s.pending = nil
}
