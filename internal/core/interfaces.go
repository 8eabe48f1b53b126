package core

import "github.com/akarpov/Mingle/internal/domain"

// Frame is a raw outbound payload (JSON-encoded event or relayed signal).
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PartnerDTO is the read-only partner descriptor delivered with a match
// (no transport fields).
type PartnerDTO struct {
	ID      domain.UserID `json:"id"`
	Gender  domain.Gender `json:"gender,omitempty"`
	Country string        `json:"country,omitempty"`
}

// Events is the client-facing notification surface the pairing engine and
// lifecycle managers emit through. Implemented by the orchestrator, which
// resolves identities to live connections.
type Events interface {
	MatchFound(to domain.UserID, m *domain.Match, partner PartnerDTO, isInitiator bool)
	MatchEnded(to domain.UserID, roomID domain.RoomID, reason string)
	MatchingStatus(to domain.UserID, stage domain.Stage, queueSize int)
	MatchingTimeout(to domain.UserID)
	MatchingError(to domain.UserID, code, message string)
}
