package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode"

	"github.com/akramer/linechat/pkg/model"
	"github.com/akramer/linechat/pkg/protocol"
)

// timestampLayout renders the broadcast prefix timestamp.
const timestampLayout = time.UnixDate

// handleConn drives one connection through its full lifecycle:
// authentication exchange, registration, command loop, termination.
// Every fault is contained to this goroutine; nothing here may take down
// the accept loop or another session.
func (s *Server) handleConn(conn net.Conn) {
	sess := NewSession(conn)

	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	slog.Debug("new connection", "remote", sess.RemoteAddr())

	registered := false
	username := ""

	defer func() {
		first := sess.Terminate()
		s.metrics.ActiveConnections.Add(-1)
		s.metrics.TotalDisconnects.Add(1)

		if registered {
			s.registry.Unregister(username)
			if first {
				s.router.Broadcast(username, username+" has left the chat.", sess)
				slog.Info("client left", "user", username)
			}
		} else {
			slog.Debug("unauthenticated connection closed", "remote", sess.RemoteAddr())
		}
	}()

	username = s.authenticate(sess)
	if username == "" {
		return
	}
	registered = true

	_ = sess.Deliver(fmt.Sprintf("Authentication successful. Welcome %s!", username))
	s.router.Broadcast(username, username+" has joined the chat.", sess)
	slog.Info("client joined", "user", username, "remote", sess.RemoteAddr())
	s.metrics.SuccessfulAuths.Add(1)

	if err := s.commandLoop(sess, username); err != nil {
		if errors.Is(err, io.EOF) || isClosedErr(err) {
			return
		}
		slog.Error("session error", "user", username, "err", err)
	}
}

// authenticate runs the credential exchange until it succeeds and the
// username is registered, returning the identity. Returns "" when the
// connection drops, the server shuts down, or the attempt budget runs out.
// There is no lockout: a failed check only reprompts.
func (s *Server) authenticate(sess *Session) string {
	attempts := 0
	for {
		select {
		case <-s.ctx.Done():
			return ""
		default:
		}
		sess.beginAuth()

		if err := sess.Deliver("Enter username: "); err != nil {
			return ""
		}
		username, err := protocol.ReadLine(sess.reader)
		if err != nil {
			return ""
		}
		if err := sess.Deliver("Enter password: "); err != nil {
			return ""
		}
		password, err := protocol.ReadLine(sess.reader)
		if err != nil {
			return ""
		}

		if !s.deps.Auth.Verify(username, password) {
			s.metrics.FailedAuths.Add(1)
			slog.Warn("failed login attempt", "username", username, "remote", sess.RemoteAddr())
			_ = sess.Deliver("Invalid credentials. Try again.")
			attempts++
			if s.cfg.MaxAuthAttempts > 0 && attempts >= s.cfg.MaxAuthAttempts {
				_ = sess.Deliver("Too many failed attempts.")
				return ""
			}
			continue
		}

		if err := model.ValidateUsername(username); err != nil {
			_ = sess.Deliver("Invalid username: " + err.Error())
			continue
		}

		// The identity must be in place before Register publishes the
		// session: a broadcast may read it the moment the entry appears.
		sess.setAuthenticated(username)
		if err := s.registry.Register(username, sess); err != nil {
			// DuplicateIdentity: the existing session keeps its entry; this
			// client must authenticate again under a different name.
			sess.retractAuth()
			_ = sess.Deliver(fmt.Sprintf("User %s is already connected. Try a different name.", username))
			slog.Warn("duplicate identity rejected", "username", username)
			continue
		}

		return username
	}
}

// commandLoop reads input lines and executes the parsed commands until the
// stream closes, an unrecoverable I/O fault occurs, the client exits, or the
// server shuts down.
func (s *Server) commandLoop(sess *Session, username string) error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		if s.cfg.IdleTimeout > 0 {
			_ = sess.conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.IdleTimeout)))
		}
		line, err := protocol.ReadLine(sess.reader)
		if err != nil {
			return err
		}

		cmd := protocol.ParseCommand(line)
		switch cmd.Kind {
		case protocol.CmdExit:
			return nil

		case protocol.CmdUsageError:
			_ = sess.Deliver(cmd.Usage)

		case protocol.CmdSetStatus:
			sess.SetStatus(sanitizeText(cmd.Text))
			_ = sess.Deliver("Status updated to: " + sess.Status())
			slog.Info("status updated", "user", username, "status", sess.Status())

		case protocol.CmdToggleEncryption:
			if s.deps.Cipher == nil {
				_ = sess.Deliver("Encryption is not configured on this server.")
				break
			}
			if sess.ToggleEncryption() {
				_ = sess.Deliver("Encryption toggled: Enabled")
			} else {
				_ = sess.Deliver("Encryption toggled: Disabled")
			}

		case protocol.CmdTranslate:
			s.handleTranslate(sess, username, cmd)

		case protocol.CmdPrivate:
			rendered := fmt.Sprintf("[Private from %s]: %s", username, sanitizeText(cmd.Text))
			if err := s.router.Unicast(rendered, cmd.Recipient); err != nil {
				_ = sess.Deliver(fmt.Sprintf("User %s not found.", cmd.Recipient))
			}

		case protocol.CmdStartAudio:
			if err := s.handleAudio(sess, username); err != nil {
				return err
			}

		case protocol.CmdPlainMessage:
			text := sanitizeText(strings.TrimSpace(cmd.Text))
			if text == "" {
				break
			}
			rendered := fmt.Sprintf("[%s] %s (%s): %s",
				time.Now().Format(timestampLayout), username, sess.Status(), text)
			if sess.EncryptionEnabled() && s.deps.Cipher != nil {
				rendered = s.deps.Cipher.Encrypt(rendered)
			}
			s.router.Broadcast(username, rendered, sess)
		}
	}
}

// handleTranslate renders a translated broadcast. A translation failure
// surfaces as the original text unchanged plus a logged error.
func (s *Server) handleTranslate(sess *Session, username string, cmd protocol.Command) {
	s.metrics.TranslateRequests.Add(1)

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	text := sanitizeText(cmd.Text)
	translated, err := s.deps.Translator.Translate(ctx, text, cmd.Lang)
	if err != nil {
		slog.Error("translation failed", "user", username, "lang", cmd.Lang, "err", err)
		translated = text
	}
	s.router.Broadcast(username, fmt.Sprintf("%s (translated): %s", username, translated), sess)
}

// handleAudio reads one framed binary segment from the client and relays it.
// The frame boundary is explicit, so the payload can never collide with
// subsequent text commands. Transcription and keyword detection run
// afterwards, asynchronously and purely advisory.
func (s *Server) handleAudio(sess *Session, username string) error {
	payload, err := protocol.ReadFrame(sess.reader)
	if err != nil {
		return fmt.Errorf("read audio frame: %w", err)
	}

	s.router.RelayBinary(username, payload, sess)
	slog.Info("audio relayed", "user", username, "bytes", len(payload))

	go s.analyzeAudio(sess, username, payload)
	return nil
}

// analyzeAudio runs the advisory speech collaborators on a relayed payload.
// Failures are swallowed and logged; results go back to the sender only.
func (s *Server) analyzeAudio(sess *Session, username string, payload []byte) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	if transcript, err := s.deps.Transcriber.Transcribe(ctx, payload); err != nil {
		slog.Error("transcription failed", "user", username, "err", err)
	} else if transcript != "" {
		_ = sess.Deliver("Recognized text: " + transcript)
	}

	if keyword := s.deps.Keywords.Detect(payload); keyword != "" {
		_ = sess.Deliver("Detected keyword in audio: " + keyword)
		slog.Info("keyword detected in audio", "user", username, "keyword", keyword)
	}
}

func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, net.ErrClosed) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

// sanitizeText strips control characters (except newline, which cannot occur
// in a parsed line anyway) from user-supplied text to prevent terminal
// escape injection and null-byte tricks.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
