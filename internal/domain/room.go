package domain

import "time"

type RoomID string

type RoomState string

const (
	RoomOpen   RoomState = "open"
	RoomActive RoomState = "active"
	RoomClosed RoomState = "closed"
)

const (
	DefaultRoomTTL  = 30 * time.Minute
	MaxParticipants = 2
)

// Room is a two-party call allocation. Participants may be empty when the
// room was created through the REST facade and nobody attached yet.
type Room struct {
	ID           RoomID
	ParticipantA UserID
	ParticipantB UserID
	CreatedAt    time.Time
	ExpiresAt    time.Time
	ClosedAt     time.Time
	State        RoomState
}

// Participants returns the non-empty participant identities.
func (r *Room) Participants() []UserID {
	out := make([]UserID, 0, MaxParticipants)
	if r.ParticipantA != "" {
		out = append(out, r.ParticipantA)
	}
	if r.ParticipantB != "" {
		out = append(out, r.ParticipantB)
	}
	return out
}

// PartnerOf returns the other participant, if any.
func (r *Room) PartnerOf(id UserID) (UserID, bool) {
	switch id {
	case r.ParticipantA:
		if r.ParticipantB != "" {
			return r.ParticipantB, true
		}
	case r.ParticipantB:
		if r.ParticipantA != "" {
			return r.ParticipantA, true
		}
	}
	return "", false
}

func (r *Room) Has(id UserID) bool {
	return id != "" && (r.ParticipantA == id || r.ParticipantB == id)
}
