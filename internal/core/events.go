package core

import "github.com/akarpov/Mingle/internal/domain"

// Wire shapes for client-facing notification events. Adapters and the
// orchestrator marshal these as-is.

type MatchFoundEvent struct {
	Type        string         `json:"type"`
	MatchID     domain.MatchID `json:"matchId"`
	RoomID      domain.RoomID  `json:"roomId"`
	Partner     PartnerDTO     `json:"partner"`
	IsInitiator bool           `json:"isInitiator"`
}

type MatchEndedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

type MatchingStatusEvent struct {
	Type      string       `json:"type"`
	Stage     domain.Stage `json:"stage"`
	QueueSize int          `json:"queueSize"`
}

type MatchingTimeoutEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type MatchingErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const (
	EventMatchFound      = "matchFound"
	EventMatchEnded      = "matchEnded"
	EventMatchingStatus  = "matchingStatus"
	EventMatchingTimeout = "matchingTimeout"
	EventMatchingError   = "matchingError"
)
