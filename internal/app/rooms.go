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

// RoomStats is the lifecycle manager's slice of /api/stats.
type RoomStats struct {
	TotalRooms          int           `json:"totalRooms"`
	OpenRooms           int           `json:"openRooms"`
	AverageCallDuration time.Duration `json:"averageCallDuration"`
}

// RoomManager creates, tracks and expires two-party rooms. It owns room
// capacity and TTL enforcement; the sweep loop runs on its own schedule
// independent of any connection.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[domain.RoomID]*domain.Room
	byUser map[domain.UserID]domain.RoomID

	defaultTTL    time.Duration
	sweepInterval time.Duration

	onExpire func(room domain.Room)

	totalRooms  int
	closedCalls int
	totalCall   time.Duration
}

func NewRoomManager(defaultTTL, sweepInterval time.Duration) *RoomManager {
	if defaultTTL <= 0 {
		defaultTTL = domain.DefaultRoomTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	return &RoomManager{
		rooms:         make(map[domain.RoomID]*domain.Room),
		byUser:        make(map[domain.UserID]domain.RoomID),
		defaultTTL:    defaultTTL,
		sweepInterval: sweepInterval,
	}
}

// SetOnExpire installs the callback invoked (outside the manager's lock)
// for every room the sweep closes.
func (m *RoomManager) SetOnExpire(fn func(room domain.Room)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// CreateRoom allocates a room for exactly two participants. Fails when
// either participant already holds a non-closed room.
func (m *RoomManager) CreateRoom(a, b domain.UserID, ttl time.Duration) (domain.Room, error) {
	if a == "" || b == "" || a == b {
		return domain.Room{}, fmt.Errorf("%w: room needs two distinct participants", core.ErrValidation)
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range []domain.UserID{a, b} {
		if rid, ok := m.byUser[id]; ok {
			return domain.Room{}, fmt.Errorf("%w: %s already holds room %s", core.ErrCapacity, id, rid)
		}
	}
	room := m.newRoomLocked(ttl)
	room.ParticipantA = a
	room.ParticipantB = b
	m.byUser[a] = room.ID
	m.byUser[b] = room.ID
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).
		Str("a", string(a)).Str("b", string(b)).Msg("room created")
	return *room, nil
}

// CreateEmptyRoom serves the external room-creation contract: a room with
// no participants yet, capacity two.
func (m *RoomManager) CreateEmptyRoom(ttl time.Duration) domain.Room {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	room := m.newRoomLocked(ttl)
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Msg("empty room created")
	return *room
}

func (m *RoomManager) newRoomLocked(ttl time.Duration) *domain.Room {
	now := time.Now()
	room := &domain.Room{
		ID:        domain.RoomID(uuid.NewString()),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		State:     domain.RoomOpen,
	}
	m.rooms[room.ID] = room
	m.totalRooms++
	return room
}

// Attach adds a participant to an externally created room.
func (m *RoomManager) Attach(id domain.RoomID, u domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok || room.State == domain.RoomClosed {
		return fmt.Errorf("%w: room %s not open", core.ErrValidation, id)
	}
	if room.Has(u) {
		return nil
	}
	if _, busy := m.byUser[u]; busy {
		return fmt.Errorf("%w: %s already holds a room", core.ErrCapacity, u)
	}
	switch {
	case room.ParticipantA == "":
		room.ParticipantA = u
	case room.ParticipantB == "":
		room.ParticipantB = u
	default:
		return fmt.Errorf("%w: room %s is full", core.ErrCapacity, id)
	}
	m.byUser[u] = id
	return nil
}

// MarkActive flips an open room to active (first answer relayed).
func (m *RoomManager) MarkActive(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok && room.State == domain.RoomOpen {
		room.State = domain.RoomActive
	}
}

// CloseRoom releases both participants' mapping. Closing an already-closed
// or unknown room is a no-op; returns whether a close happened.
func (m *RoomManager) CloseRoom(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(id)
}

func (m *RoomManager) closeLocked(id domain.RoomID) bool {
	room, ok := m.rooms[id]
	if !ok || room.State == domain.RoomClosed {
		return false
	}
	room.State = domain.RoomClosed
	room.ClosedAt = time.Now()
	for _, p := range room.Participants() {
		if m.byUser[p] == id {
			delete(m.byUser, p)
		}
	}
	m.closedCalls++
	m.totalCall += room.ClosedAt.Sub(room.CreatedAt)
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room closed")
	return true
}

func (m *RoomManager) GetRoom(id domain.RoomID) (domain.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		return *room, true
	}
	return domain.Room{}, false
}

func (m *RoomManager) RoomOf(u domain.UserID) (domain.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rid, ok := m.byUser[u]; ok {
		if room, ok := m.rooms[rid]; ok {
			return *room, true
		}
	}
	return domain.Room{}, false
}

func (m *RoomManager) Stats() RoomStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := RoomStats{TotalRooms: m.totalRooms, OpenRooms: len(m.rooms)}
	if m.closedCalls > 0 {
		s.AverageCallDuration = m.totalCall / time.Duration(m.closedCalls)
	}
	return s
}

// Run drives the TTL sweep until ctx is done.
func (m *RoomManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *RoomManager) sweep(now time.Time) {
	m.mu.Lock()
	var expired []domain.Room
	for id, room := range m.rooms {
		if now.After(room.ExpiresAt) && m.closeLocked(id) {
			expired = append(expired, *room)
		}
	}
	fn := m.onExpire
	m.mu.Unlock()

	for _, room := range expired {
		log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Msg("room expired")
		if fn != nil {
			fn(room)
		}
	}
}
