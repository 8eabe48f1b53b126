package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// matchUp registers both identities, runs them through the queue and
// returns their shared room id.
func matchUp(t *testing.T, orch *Orchestrator, reg *Registry, a, b domain.UserID) (*fakeConn, *fakeConn, domain.RoomID) {
	t.Helper()
	ca := register(t, reg, a)
	cb := register(t, reg, b)
	if err := orch.OnFindMatch(a, domain.MatchAttributes{}); err != nil {
		t.Fatalf("enqueue %s: %v", a, err)
	}
	if err := orch.OnFindMatch(b, domain.MatchAttributes{}); err != nil {
		t.Fatalf("enqueue %s: %v", b, err)
	}
	found := ca.eventsOfType(t, core.EventMatchFound)
	if len(found) != 1 {
		t.Fatalf("%s matchFound: got %d, want 1", a, len(found))
	}
	return ca, cb, domain.RoomID(found[0]["roomId"].(string))
}

func TestDisconnectMidCallNotifiesPartner(t *testing.T) {
	t.Parallel()
	orch, reg, rooms, _ := newTestStack(t)
	aliceConn, bob, roomID := matchUp(t, orch, reg, "alice", "bob")

	orch.OnDisconnect("alice", aliceConn)

	ended := bob.eventsOfType(t, core.EventMatchEnded)
	if len(ended) != 1 {
		t.Fatalf("bob matchEnded: got %d, want 1", len(ended))
	}
	if ended[0]["reason"] != "peer_disconnected" {
		t.Errorf("reason: got %v, want peer_disconnected", ended[0]["reason"])
	}
	if _, ok := rooms.GetRoom(roomID); ok {
		t.Error("room still open after participant disconnect")
	}
	if _, ok := reg.Lookup("alice"); ok {
		t.Error("alice still registered after disconnect")
	}
	if st, _ := reg.StageOf("bob"); st != domain.StageEnded {
		t.Errorf("bob stage: got %s, want ended", st)
	}
}

func TestEndCallNotifiesPartnerAndClosesRoom(t *testing.T) {
	t.Parallel()
	orch, reg, rooms, _ := newTestStack(t)
	_, bob, roomID := matchUp(t, orch, reg, "alice", "bob")

	orch.OnEndCall("alice")

	ended := bob.eventsOfType(t, core.EventMatchEnded)
	if len(ended) != 1 {
		t.Fatalf("bob matchEnded: got %d, want 1", len(ended))
	}
	if ended[0]["reason"] != "peer_ended" {
		t.Errorf("reason: got %v, want peer_ended", ended[0]["reason"])
	}
	if _, ok := rooms.GetRoom(roomID); ok {
		t.Error("room still open after end_call")
	}
	// Alice no longer holds a room: a fresh search is allowed.
	if err := orch.OnFindMatch("alice", domain.MatchAttributes{}); err != nil {
		t.Errorf("re-enqueue after end_call: %v", err)
	}
}

func TestRoomExpiryNotifiesBothParticipants(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()
	rooms := NewRoomManager(10*time.Millisecond, time.Hour)
	queue := NewMatchQueue(registry, rooms, time.Minute, time.Hour)
	relay := NewRelay(registry)
	orch := NewOrchestrator(registry, rooms, queue, relay)

	alice, bob, _ := matchUp(t, orch, registry, "alice", "bob")

	rooms.sweep(time.Now().Add(time.Minute))

	for name, conn := range map[string]*fakeConn{"alice": alice, "bob": bob} {
		ended := conn.eventsOfType(t, core.EventMatchEnded)
		if len(ended) != 1 {
			t.Fatalf("%s matchEnded: got %d, want 1", name, len(ended))
		}
		if ended[0]["reason"] != "expired" {
			t.Errorf("%s reason: got %v, want expired", name, ended[0]["reason"])
		}
	}
}

func TestSignalAnswerActivatesRoom(t *testing.T) {
	t.Parallel()
	orch, reg, rooms, _ := newTestStack(t)
	_, _, roomID := matchUp(t, orch, reg, "alice", "bob")

	err := orch.OnSignal("bob", domain.SignalMessage{
		Kind:    domain.SignalAnswer,
		To:      "alice",
		Payload: json.RawMessage(`{"sdp":"v=0 fake answer"}`),
	})
	if err != nil {
		t.Fatalf("OnSignal: %v", err)
	}
	room, ok := rooms.GetRoom(roomID)
	if !ok {
		t.Fatal("room vanished")
	}
	if room.State != domain.RoomActive {
		t.Errorf("room state after answer: got %s, want active", room.State)
	}
}

func TestSignalBeforeRoomSettlesStillRoutes(t *testing.T) {
	t.Parallel()
	orch, reg, _, _ := newTestStack(t)
	register(t, reg, "alice")
	bob := register(t, reg, "bob")

	// No room exists yet; routing is identity-based and must still work.
	err := orch.OnSignal("alice", domain.SignalMessage{
		Kind:    domain.SignalCandidate,
		To:      "bob",
		Payload: json.RawMessage(`{"candidate":"candidate:0 1 UDP 1 192.0.2.1 3478 typ host"}`),
	})
	if err != nil {
		t.Fatalf("OnSignal without room: %v", err)
	}
	if got := len(bob.eventsOfType(t, "ice-candidate")); got != 1 {
		t.Fatalf("bob candidates: got %d, want 1", got)
	}
}

func TestStaleDisconnectDoesNotTearDownReconnectedSession(t *testing.T) {
	t.Parallel()
	orch, reg, _, queue := newTestStack(t)
	old := register(t, reg, "alice")
	fresh := register(t, reg, "alice")

	if err := orch.OnFindMatch("alice", domain.MatchAttributes{}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// The old connection's deferred cleanup fires after the reconnect.
	orch.OnDisconnect("alice", old)

	if got := queue.Size(); got != 1 {
		t.Fatalf("queue size after stale disconnect: got %d, want 1", got)
	}
	if cur, ok := reg.Lookup("alice"); !ok || cur != fresh {
		t.Error("stale disconnect removed the fresh registry binding")
	}
}

func TestCloseRoomByIDNotifiesParticipants(t *testing.T) {
	t.Parallel()
	orch, reg, _, _ := newTestStack(t)
	alice, bob, roomID := matchUp(t, orch, reg, "alice", "bob")

	if !orch.CloseRoomByID(roomID) {
		t.Fatal("CloseRoomByID: reported failure for an open room")
	}
	if orch.CloseRoomByID(roomID) {
		t.Error("closing twice should report failure")
	}
	for name, conn := range map[string]*fakeConn{"alice": alice, "bob": bob} {
		if got := len(conn.eventsOfType(t, core.EventMatchEnded)); got != 1 {
			t.Errorf("%s matchEnded: got %d, want 1", name, got)
		}
	}
}
