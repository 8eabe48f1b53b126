package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// Orchestrator wires the registry, room lifecycle, pairing engine and
// relay together and implements the client notification surface. All
// components are explicit instances so tests can run many in isolation.
type Orchestrator struct {
	Registry *Registry
	Rooms    *RoomManager
	Queue    *MatchQueue
	Relay    *Relay
}

func NewOrchestrator(registry *Registry, rooms *RoomManager, queue *MatchQueue, relay *Relay) *Orchestrator {
	o := &Orchestrator{Registry: registry, Rooms: rooms, Queue: queue, Relay: relay}
	queue.SetEvents(o)
	rooms.SetOnExpire(o.onRoomExpired)
	return o
}

func (o *Orchestrator) OnRegister(id domain.UserID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Register(id, conn, cancel)
}

func (o *Orchestrator) OnFindMatch(id domain.UserID, attrs domain.MatchAttributes) error {
	_, err := o.Queue.Enqueue(id, attrs)
	return err
}

func (o *Orchestrator) OnCancelMatch(id domain.UserID) bool {
	return o.Queue.Cancel(id)
}

// OnSignal relays a negotiation message. The first answer between two
// participants of the same room flips it to active.
func (o *Orchestrator) OnSignal(sender domain.UserID, msg domain.SignalMessage) error {
	if err := o.Relay.Relay(sender, msg); err != nil {
		return err
	}
	if msg.Kind == domain.SignalAnswer {
		if room, ok := o.Rooms.RoomOf(sender); ok && room.Has(msg.To) {
			o.Rooms.MarkActive(room.ID)
		}
	}
	return nil
}

// OnEndCall closes the caller's room; the partner hears matchEnded.
func (o *Orchestrator) OnEndCall(id domain.UserID) {
	room, ok := o.Rooms.RoomOf(id)
	if !ok {
		return
	}
	partner, hasPartner := room.PartnerOf(id)
	if o.Rooms.CloseRoom(room.ID) {
		o.Registry.AdvanceStage(id, domain.StageEnded)
		if hasPartner {
			o.Registry.AdvanceStage(partner, domain.StageEnded)
			o.MatchEnded(partner, room.ID, "peer_ended")
		}
	}
}

// OnDisconnect removes every trace of the session in one logical step:
// queue entry, open room, registry binding.
func (o *Orchestrator) OnDisconnect(id domain.UserID, conn core.SignalConnection) {
	// A stale handle's cleanup must not tear down the session a reconnect
	// already replaced it with.
	if cur, ok := o.Registry.Lookup(id); ok && conn != nil && cur != conn {
		log.Debug().Str("module", "app.orchestrator").Str("id", string(id)).Msg("stale disconnect ignored")
		return
	}
	o.Queue.Cancel(id)
	if room, ok := o.Rooms.RoomOf(id); ok {
		partner, hasPartner := room.PartnerOf(id)
		if o.Rooms.CloseRoom(room.ID) && hasPartner {
			o.Registry.AdvanceStage(partner, domain.StageEnded)
			o.MatchEnded(partner, room.ID, "peer_disconnected")
		}
	}
	o.Registry.AdvanceStage(id, domain.StageEnded)
	o.Registry.Unregister(id, conn)
	log.Info().Str("module", "app.orchestrator").Str("id", string(id)).Msg("session cleaned up")
}

// CloseRoomByID serves the REST facade. Participants, if any, are notified.
func (o *Orchestrator) CloseRoomByID(id domain.RoomID) bool {
	room, ok := o.Rooms.GetRoom(id)
	if !ok {
		return false
	}
	if !o.Rooms.CloseRoom(id) {
		return false
	}
	for _, p := range room.Participants() {
		o.Registry.AdvanceStage(p, domain.StageEnded)
		o.MatchEnded(p, id, "closed")
	}
	return true
}

func (o *Orchestrator) onRoomExpired(room domain.Room) {
	for _, p := range room.Participants() {
		o.Registry.AdvanceStage(p, domain.StageEnded)
		o.MatchEnded(p, room.ID, "expired")
	}
}

// ---- core.Events ----

func (o *Orchestrator) MatchFound(to domain.UserID, m *domain.Match, partner core.PartnerDTO, isInitiator bool) {
	o.notify(to, core.MatchFoundEvent{
		Type:        core.EventMatchFound,
		MatchID:     m.ID,
		RoomID:      m.RoomID,
		Partner:     partner,
		IsInitiator: isInitiator,
	})
}

func (o *Orchestrator) MatchEnded(to domain.UserID, roomID domain.RoomID, reason string) {
	o.notify(to, core.MatchEndedEvent{Type: core.EventMatchEnded, RoomID: roomID, Reason: reason})
}

func (o *Orchestrator) MatchingStatus(to domain.UserID, stage domain.Stage, queueSize int) {
	o.notify(to, core.MatchingStatusEvent{Type: core.EventMatchingStatus, Stage: stage, QueueSize: queueSize})
}

func (o *Orchestrator) MatchingTimeout(to domain.UserID) {
	o.notify(to, core.MatchingTimeoutEvent{Type: core.EventMatchingTimeout, Message: "no partner found in time"})
}

func (o *Orchestrator) MatchingError(to domain.UserID, code, message string) {
	o.notify(to, core.MatchingErrorEvent{Type: core.EventMatchingError, Message: message, Code: code})
}

func (o *Orchestrator) notify(to domain.UserID, v any) {
	conn, ok := o.Registry.Lookup(to)
	if !ok {
		log.Debug().Str("module", "app.orchestrator").Str("to", string(to)).Msg("notify: not connected")
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("notify marshal")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.orchestrator").Str("to", string(to)).Msg("notify dropped")
	}
}
