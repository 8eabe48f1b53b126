package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// fakeConn records every frame a component tries to deliver.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventsOfType decodes the recorded frames and keeps those whose "type"
// field matches.
func (c *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("recorded frame is not JSON: %v", err)
		}
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

// newTestStack wires a full in-memory pairing stack with short windows.
func newTestStack(t *testing.T) (*Orchestrator, *Registry, *RoomManager, *MatchQueue) {
	t.Helper()
	registry := NewRegistry()
	rooms := NewRoomManager(time.Minute, time.Hour)
	queue := NewMatchQueue(registry, rooms, time.Minute, time.Hour)
	relay := NewRelay(registry)
	orch := NewOrchestrator(registry, rooms, queue, relay)
	return orch, registry, rooms, queue
}

func register(t *testing.T, reg *Registry, id domain.UserID) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	reg.Register(id, conn, nil)
	return conn
}
