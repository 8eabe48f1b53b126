package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// outboundSignal is what the target's transport receives: the payload
// verbatim, re-addressed with the sender identity.
type outboundSignal struct {
	Type string          `json:"type"`
	From domain.UserID   `json:"from"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Relay forwards negotiation messages between paired clients. Routing is
// always identity-based, never room-based, so a candidate arriving before
// the room record settles is still delivered. Forwarding is fire-and-forget:
// a slow target drops the frame, the sender is never blocked.
type Relay struct {
	registry *Registry

	mu  sync.Mutex
	seq map[domain.UserID]uint64

	bytesForwarded atomic.Uint64
	droppedFrames  atomic.Uint64
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{
		registry: registry,
		seq:      make(map[domain.UserID]uint64),
	}
}

// Relay validates the message kind, resolves the target through the
// registry and forwards. The returned error carries the taxonomy the
// caller reports to the sender; nothing here terminates a connection.
func (r *Relay) Relay(sender domain.UserID, msg domain.SignalMessage) error {
	switch msg.Kind {
	case domain.SignalOffer, domain.SignalAnswer, domain.SignalCandidate:
	default:
		log.Warn().Str("module", "app.relay").Str("from", string(sender)).
			Str("kind", string(msg.Kind)).Msg("rejected unknown signal kind")
		return fmt.Errorf("%w: unknown signal kind %q", core.ErrValidation, msg.Kind)
	}
	if msg.To == "" {
		return fmt.Errorf("%w: signal without target", core.ErrValidation)
	}

	conn, ok := r.registry.Lookup(msg.To)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("from", string(sender)).
			Str("to", string(msg.To)).Msg("target not connected")
		return fmt.Errorf("%w: %s", core.ErrPeerUnavailable, msg.To)
	}

	out := outboundSignal{Type: string(msg.Kind), From: sender, Data: msg.Payload}
	frame, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	r.mu.Lock()
	r.seq[sender]++
	seq := r.seq[sender]
	r.mu.Unlock()

	if err := conn.TrySend(core.Frame(frame)); err != nil {
		// Slow consumer: the frame is dropped, never queued behind a lock.
		r.droppedFrames.Add(1)
		log.Warn().Err(err).Str("module", "app.relay").Str("from", string(sender)).
			Str("to", string(msg.To)).Uint64("seq", seq).Msg("dropped frame")
		return nil
	}
	r.bytesForwarded.Add(uint64(len(frame)))
	log.Debug().Str("module", "app.relay").Str("from", string(sender)).
		Str("to", string(msg.To)).Str("kind", string(msg.Kind)).Uint64("seq", seq).Msg("forwarded")
	return nil
}

func (r *Relay) BytesForwarded() uint64 { return r.bytesForwarded.Load() }
func (r *Relay) DroppedFrames() uint64  { return r.droppedFrames.Load() }
