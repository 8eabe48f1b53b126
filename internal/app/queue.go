package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// MatchQueue holds waiting users in strict arrival order and pairs them
// with the symmetric compatibility predicate. The pairing step is atomic
// end-to-end under the queue mutex: selecting two entries, removing both
// and allocating the room happen before anyone else can observe either
// entry, so no entry is ever matched twice.
type MatchQueue struct {
	mu      sync.Mutex
	entries []*domain.QueueEntry

	registry *Registry
	rooms    *RoomManager
	events   core.Events

	window        time.Duration
	sweepInterval time.Duration
}

func NewMatchQueue(registry *Registry, rooms *RoomManager, window, sweepInterval time.Duration) *MatchQueue {
	if window <= 0 {
		window = 90 * time.Second
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	return &MatchQueue{
		registry:      registry,
		rooms:         rooms,
		window:        window,
		sweepInterval: sweepInterval,
	}
}

// SetEvents breaks the construction cycle with the orchestrator.
func (q *MatchQueue) SetEvents(ev core.Events) { q.events = ev }

// Enqueue adds a waiting user and runs a pairing step. A user cannot
// occupy two queue slots, and cannot search while holding an open room.
func (q *MatchQueue) Enqueue(id domain.UserID, attrs domain.MatchAttributes) (*domain.QueueEntry, error) {
	if _, busy := q.rooms.RoomOf(id); busy {
		return nil, fmt.Errorf("%w: %s already holds an open room", core.ErrCapacity, id)
	}

	q.mu.Lock()
	for _, e := range q.entries {
		if e.Identity == id {
			q.mu.Unlock()
			return nil, fmt.Errorf("%w: %s already queued", core.ErrCapacity, id)
		}
	}
	now := time.Now()
	entry := &domain.QueueEntry{
		Identity:   id,
		Attributes: attrs,
		EnqueuedAt: now,
		Deadline:   now.Add(q.window),
	}
	q.entries = append(q.entries, entry)
	size := len(q.entries)
	// A fresh enqueue after an ended call re-enters through idle.
	if st, ok := q.registry.StageOf(id); ok && st == domain.StageEnded {
		q.registry.AdvanceStage(id, domain.StageIdle)
	}
	q.registry.AdvanceStage(id, domain.StageQueued)
	matches := q.pairStepLocked()
	q.mu.Unlock()

	log.Info().Str("module", "app.queue").Str("id", string(id)).Int("size", size).Msg("enqueued")
	if q.events != nil {
		q.events.MatchingStatus(id, domain.StageQueued, size)
	}
	q.deliver(matches)
	return entry, nil
}

// Cancel removes the entry immediately. To the rest of the system it is
// indistinguishable from a timeout; only the notification differs, and
// that is the caller's concern.
func (q *MatchQueue) Cancel(id domain.UserID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.Identity == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			q.registry.AdvanceStage(id, domain.StageEnded)
			log.Info().Str("module", "app.queue").Str("id", string(id)).Msg("canceled")
			return true
		}
	}
	return false
}

func (q *MatchQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// pairedMatch carries one committed pairing out of the locked section so
// notifications go out without holding the queue mutex.
type pairedMatch struct {
	match    domain.Match
	a, b     *domain.QueueEntry
	failed   []domain.UserID
	failCode string
}

// pairStepLocked scans head-first: for each remaining entry, find the
// earliest later mutually compatible entry. Strict arrival order is the
// only priority. Callers hold q.mu.
func (q *MatchQueue) pairStepLocked() []pairedMatch {
	var out []pairedMatch
	for i := 0; i < len(q.entries); {
		head := q.entries[i]
		j := -1
		for k := i + 1; k < len(q.entries); k++ {
			if domain.Compatible(head.Attributes, q.entries[k].Attributes) {
				j = k
				break
			}
		}
		if j < 0 {
			i++
			continue
		}
		partner := q.entries[j]
		// Remove the later entry first so the head index stays valid.
		q.entries = append(q.entries[:j], q.entries[j+1:]...)
		q.entries = append(q.entries[:i], q.entries[i+1:]...)

		q.registry.AdvanceStage(head.Identity, domain.StageSearching)
		q.registry.AdvanceStage(head.Identity, domain.StagePairing)
		q.registry.AdvanceStage(partner.Identity, domain.StageSearching)
		q.registry.AdvanceStage(partner.Identity, domain.StagePairing)

		room, err := q.rooms.CreateRoom(head.Identity, partner.Identity, 0)
		if err != nil {
			// Partial pairing never commits: both entries leave the queue
			// and both sessions end this matching attempt.
			log.Error().Err(err).Str("module", "app.queue").
				Str("a", string(head.Identity)).Str("b", string(partner.Identity)).
				Msg("room allocation failed")
			q.registry.AdvanceStage(head.Identity, domain.StageEnded)
			q.registry.AdvanceStage(partner.Identity, domain.StageEnded)
			out = append(out, pairedMatch{
				failed:   []domain.UserID{head.Identity, partner.Identity},
				failCode: core.CodeOf(err),
			})
			continue
		}

		q.registry.AdvanceStage(head.Identity, domain.StageMatched)
		q.registry.AdvanceStage(partner.Identity, domain.StageMatched)

		match := domain.Match{
			ID:           domain.MatchID(uuid.NewString()),
			RoomID:       room.ID,
			ParticipantA: head.Identity,
			ParticipantB: partner.Identity,
			Initiator:    head.Identity, // earlier enqueue initiates
			CreatedAt:    time.Now(),
		}
		log.Info().Str("module", "app.queue").Str("match", string(match.ID)).
			Str("room", string(room.ID)).Str("a", string(head.Identity)).
			Str("b", string(partner.Identity)).Msg("paired")
		out = append(out, pairedMatch{match: match, a: head, b: partner})
	}

	// Whoever is still here keeps searching.
	for _, e := range q.entries {
		q.registry.AdvanceStage(e.Identity, domain.StageSearching)
	}
	return out
}

func (q *MatchQueue) deliver(matches []pairedMatch) {
	if q.events == nil {
		return
	}
	for _, pm := range matches {
		if len(pm.failed) > 0 {
			for _, id := range pm.failed {
				q.events.MatchingError(id, pm.failCode, "could not allocate a room")
			}
			continue
		}
		m := pm.match
		q.events.MatchFound(pm.a.Identity, &m, partnerDTO(pm.b), true)
		q.events.MatchFound(pm.b.Identity, &m, partnerDTO(pm.a), false)
	}

	// Status fan-out to everyone still waiting.
	q.mu.Lock()
	waiting := make([]domain.UserID, 0, len(q.entries))
	for _, e := range q.entries {
		waiting = append(waiting, e.Identity)
	}
	size := len(waiting)
	q.mu.Unlock()
	for _, id := range waiting {
		q.events.MatchingStatus(id, domain.StageSearching, size)
	}
}

func partnerDTO(e *domain.QueueEntry) core.PartnerDTO {
	return core.PartnerDTO{
		ID:      e.Identity,
		Gender:  e.Attributes.Gender,
		Country: e.Attributes.Country,
	}
}

// Run drives the deadline sweep until ctx is done. Timeout is enforced
// here, never on the blocking receive path, so a slow scan cannot miss a
// concurrent cancellation.
func (q *MatchQueue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.expire(time.Now())
		}
	}
}

func (q *MatchQueue) expire(now time.Time) {
	q.mu.Lock()
	var timedOut []domain.UserID
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.After(e.Deadline) {
			timedOut = append(timedOut, e.Identity)
			q.registry.AdvanceStage(e.Identity, domain.StageEnded)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	q.mu.Unlock()

	for _, id := range timedOut {
		log.Info().Str("module", "app.queue").Str("id", string(id)).Msg("search window elapsed")
		if q.events != nil {
			q.events.MatchingTimeout(id)
		}
	}
}
