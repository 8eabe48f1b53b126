package domain

import "time"

type MatchID string

// Match is the pairing result delivered to both clients. Immutable after
// creation; exactly one participant is the initiator.
type Match struct {
	ID           MatchID
	RoomID       RoomID
	ParticipantA UserID
	ParticipantB UserID
	Initiator    UserID
	CreatedAt    time.Time
}

// QueueEntry is one user waiting for a partner.
type QueueEntry struct {
	Identity   UserID
	Attributes MatchAttributes
	EnqueuedAt time.Time
	Deadline   time.Time
	RetryCount int
}
