package domain

import (
	"encoding/json"
	"fmt"
)

// SignalKind is a negotiation message kind. The relay forwards payloads of
// these kinds verbatim and rejects everything else.
type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "ice-candidate"
)

func ParseSignalKind(s string) (SignalKind, error) {
	switch k := SignalKind(s); k {
	case SignalOffer, SignalAnswer, SignalCandidate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown signal kind %q", s)
	}
}

// SignalMessage is one negotiation payload in transit. Payload is opaque to
// the relay.
type SignalMessage struct {
	Kind     SignalKind
	From     UserID
	To       UserID
	Payload  json.RawMessage
	Sequence uint64
}
