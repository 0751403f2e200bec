package server

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrRecipientNotFound is returned by Unicast when the target username has no
// active session. It is reported back to the sender only, never broadcast.
var ErrRecipientNotFound = errors.New("server: recipient not found")

// Router implements broadcast, unicast, and binary relay over the registry.
// Delivery iterates a point-in-time snapshot, so the registry lock is never
// held across a write. Partial delivery failure never aborts delivery to the
// remaining sessions, and persistence side effects run regardless of
// delivery outcome.
type Router struct {
	registry *Registry
	journal  *Journal
	metrics  *Metrics
}

// NewRouter creates a router over a registry. journal may be nil (no
// persistence side effects, used by some tests).
func NewRouter(registry *Registry, journal *Journal, metrics *Metrics) *Router {
	return &Router{
		registry: registry,
		journal:  journal,
		metrics:  metrics,
	}
}

// Broadcast delivers a rendered line to every registered session except the
// excluded one, skipping sessions already terminated. The line is always
// forwarded to the persistence collaborators, regardless of individual
// delivery failures.
func (rt *Router) Broadcast(sender, line string, exclude *Session) {
	for _, sess := range rt.registry.Snapshot() {
		if sess == exclude || sess.Terminated() {
			continue
		}
		if err := sess.Deliver(line); err != nil {
			rt.metrics.DeliveryFailures.Add(1)
			slog.Warn("broadcast delivery failed", "recipient", sess.Identity(), "err", err)
		}
	}

	if rt.journal != nil {
		rt.journal.RecordText(sender, line)
	}
	rt.metrics.MessagesBroadcast.Add(1)
}

// Unicast delivers a rendered line to exactly one named recipient. A missing
// recipient yields ErrRecipientNotFound; nothing is delivered.
func (rt *Router) Unicast(line, to string) error {
	sess, err := rt.registry.Lookup(to)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRecipientNotFound, to)
	}
	if err := sess.Deliver(line); err != nil {
		rt.metrics.DeliveryFailures.Add(1)
		slog.Warn("private delivery failed", "recipient", to, "err", err)
		return nil // unreachable recipient is logged and skipped, not retried
	}
	rt.metrics.PrivateMessages.Add(1)
	return nil
}

// RelayBinary forwards a binary payload to every registered session except
// the excluded one. Encryption is never applied to binary payloads. The
// payload is handed to the object-storage collaborator and a notice line to
// the history collaborators, regardless of delivery failures.
func (rt *Router) RelayBinary(sender string, payload []byte, exclude *Session) {
	announce := fmt.Sprintf("Incoming audio from %s (%d bytes)", sender, len(payload))
	for _, sess := range rt.registry.Snapshot() {
		if sess == exclude || sess.Terminated() {
			continue
		}
		if err := sess.DeliverBinary(announce, payload); err != nil {
			rt.metrics.DeliveryFailures.Add(1)
			slog.Warn("binary relay delivery failed", "recipient", sess.Identity(), "err", err)
		}
	}

	if rt.journal != nil {
		rt.journal.RecordAudio(sender, payload)
	}
	rt.metrics.AudioRelays.Add(1)
}
