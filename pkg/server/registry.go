package server

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrDuplicateIdentity is returned when a username is already registered.
	ErrDuplicateIdentity = errors.New("server: username already connected")

	// ErrNotFound is returned when a username has no active session.
	ErrNotFound = errors.New("server: user not connected")
)

// Registry is the authoritative, concurrency-safe mapping of online usernames
// to their sessions. Every operation is serialized internally; the lock is
// never held across I/O. An entry exists iff the session is authenticated and
// its connection has not yet terminated.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts a session under a username. A username already present is
// rejected with ErrDuplicateIdentity and the existing entry is left untouched.
func (r *Registry) Register(username string, sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[username]; exists {
		return ErrDuplicateIdentity
	}
	r.sessions[username] = sess
	return nil
}

// Unregister removes a username's entry if present. Idempotent.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, username)
}

// Lookup returns the session for a username, or ErrNotFound.
func (r *Registry) Lookup(username string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[username]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Snapshot returns a point-in-time copy of all sessions, ordered by username.
// Broadcast iteration works on the copy so concurrent register/unregister
// cannot corrupt it; a session torn down mid-iteration is skipped by the
// caller via its terminated state.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*Session, 0, len(names))
	for _, name := range names {
		result = append(result, r.sessions[name])
	}
	return result
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
