package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

type connEntry struct {
	Conn            core.SignalConnection
	Stage           domain.Stage
	AuthenticatedAt time.Time
	Cancel          context.CancelFunc
}

// Registry maps a live client identity to its active transport handle.
// It is the only place a handle is looked up by identity.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]*connEntry)}
}

// Register binds an identity to its handle. A re-register replaces the
// prior handle; the stale one is closed so pending sends drop rather than
// queue.
func (r *Registry) Register(id domain.UserID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	prev, had := r.conns[id]
	r.conns[id] = &connEntry{
		Conn:            conn,
		Stage:           domain.StageIdle,
		AuthenticatedAt: time.Now(),
		Cancel:          cancel,
	}
	r.mu.Unlock()

	if had {
		if prev.Cancel != nil {
			prev.Cancel()
		}
		prev.Conn.Close()
		log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("replaced stale connection")
	}
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("registered connection")
}

// Unregister is idempotent and stale-safe: the entry is removed only if it
// still owns the given handle, so a reconnect is not torn down by the old
// connection's deferred cleanup.
func (r *Registry) Unregister(id domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return
	}
	if conn != nil && entry.Conn != conn {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("unregistered connection")
}

func (r *Registry) Lookup(id domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) StageOf(id domain.UserID) (domain.Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Stage, true
	}
	return "", false
}

// AdvanceStage applies the stage state machine for the identity. Invalid
// transitions are refused, keeping stage progression monotonic.
func (r *Registry) AdvanceStage(id domain.UserID, next domain.Stage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	if e.Stage == next {
		return true
	}
	if !e.Stage.CanAdvance(next) {
		log.Warn().Str("module", "app.registry").Str("id", string(id)).
			Str("from", string(e.Stage)).Str("to", string(next)).Msg("refused stage transition")
		return false
	}
	e.Stage = next
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
