package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

// handleSignalMessage relays one offer/answer/ice-candidate. The payload
// is carried as raw JSON end to end; the server never interprets SDP.
func (ctl *SignalWSController) handleSignalMessage(cs *clientSession, kind string, data []byte) {
	type signalPayload struct {
		Type   string          `json:"type"`
		Target string          `json:"target"`
		Data   json.RawMessage `json:"data"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		ctl.sendError(cs.conn, "validation", "bad_payload")
		return
	}

	k, err := domain.ParseSignalKind(kind)
	if err != nil {
		ctl.sendError(cs.conn, "validation", err.Error())
		return
	}

	msg := domain.SignalMessage{
		Kind:    k,
		From:    cs.identity,
		To:      domain.UserID(p.Target),
		Payload: p.Data,
	}
	if err := ctl.Orch.OnSignal(cs.identity, msg); err != nil {
		ctl.sendError(cs.conn, core.CodeOf(err), err.Error())
	}
}
