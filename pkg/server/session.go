package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akramer/linechat/pkg/protocol"
)

// sessionState tracks the connection lifecycle. Terminated is absorbing.
type sessionState int32

const (
	stateConnecting sessionState = iota
	stateAuthenticating
	stateAuthenticated
	stateTerminated
)

// writeTimeout bounds a single outbound write so one slow consumer cannot
// stall a broadcast beyond the transport's own backpressure.
const writeTimeout = 10 * time.Second

// DefaultStatus is the display status of a freshly authenticated session.
const DefaultStatus = "Online"

// Session is the server-side state for one connected client. It is
// exclusively owned by its serving goroutine; the registry holds a
// non-owning reference used only for delivery. Deliver and DeliverBinary are
// safe for concurrent use by other sessions' broadcasts.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader

	state atomic.Int32

	// username is written only by the owning goroutine while the session is
	// still unpublished; registration makes it visible to other goroutines.
	username string

	// status and encrypt are only touched by the owning goroutine.
	status  string
	encrypt bool

	writeMu     sync.Mutex
	unreachable atomic.Bool
	termOnce    sync.Once
}

// NewSession wraps an accepted connection. The session starts in the
// connecting state with the default display status and encryption disabled.
func NewSession(conn net.Conn) *Session {
	return &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
		status: DefaultStatus,
	}
}

// Identity returns the authenticated username, or "unset".
func (s *Session) Identity() string {
	if s.username == "" {
		return "unset"
	}
	return s.username
}

// Deliver writes one line to the session's outbound stream. A broken pipe
// marks the session unreachable and is returned for the router to log and
// skip; it is never fatal to the caller.
func (s *Session) Deliver(line string) error {
	if s.Terminated() || s.unreachable.Load() {
		return fmt.Errorf("server: session %s unreachable", s.Identity())
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
		s.unreachable.Store(true)
		return fmt.Errorf("server: deliver to %s: %w", s.Identity(), err)
	}
	return nil
}

// DeliverBinary writes an announcement line followed by one length-prefixed
// binary frame, atomically with respect to other deliveries to this session
// so a concurrent broadcast cannot split the pair.
func (s *Session) DeliverBinary(announce string, payload []byte) error {
	if s.Terminated() || s.unreachable.Load() {
		return fmt.Errorf("server: session %s unreachable", s.Identity())
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write([]byte(announce + "\n")); err != nil {
		s.unreachable.Store(true)
		return fmt.Errorf("server: deliver to %s: %w", s.Identity(), err)
	}
	if err := protocol.WriteFrame(s.conn, payload); err != nil {
		s.unreachable.Store(true)
		return fmt.Errorf("server: deliver frame to %s: %w", s.Identity(), err)
	}
	return nil
}

// Status returns the display status.
func (s *Session) Status() string { return s.status }

// SetStatus updates the display status. Owning goroutine only.
func (s *Session) SetStatus(status string) { s.status = status }

// EncryptionEnabled reports whether outbound chat text is encrypted.
func (s *Session) EncryptionEnabled() bool { return s.encrypt }

// ToggleEncryption flips the encryption flag and returns the new value.
// Owning goroutine only.
func (s *Session) ToggleEncryption() bool {
	s.encrypt = !s.encrypt
	return s.encrypt
}

// beginAuth moves the session into the authenticating state.
func (s *Session) beginAuth() {
	s.state.Store(int32(stateAuthenticating))
}

// setAuthenticated fixes the session identity. Must run before the session
// is published to the registry: the registry lock is the only happens-before
// edge between this write and Identity reads on other goroutines.
func (s *Session) setAuthenticated(username string) {
	s.username = username
	s.state.Store(int32(stateAuthenticated))
}

// retractAuth reverts a registration that was refused. Only valid while the
// session is still unpublished.
func (s *Session) retractAuth() {
	s.username = ""
	s.state.Store(int32(stateAuthenticating))
}

// Authenticated reports whether the session passed the credential exchange.
func (s *Session) Authenticated() bool {
	return sessionState(s.state.Load()) == stateAuthenticated
}

// Terminated reports whether the session reached its absorbing final state.
func (s *Session) Terminated() bool {
	return sessionState(s.state.Load()) == stateTerminated
}

// Terminate closes the transport and moves the session to the terminated
// state. Closing the connection is the only cancellation signal: it unblocks
// any pending read or write for this session without affecting others.
// Returns true on the first call only, so the caller can emit the leave
// notice exactly once.
func (s *Session) Terminate() bool {
	first := false
	s.termOnce.Do(func() {
		first = true
		s.state.Store(int32(stateTerminated))
		_ = s.conn.Close()
	})
	return first
}

// RemoteAddr returns the peer address for logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
