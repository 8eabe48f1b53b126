package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/domain"
)

// handleRegister is the once-per-connection handshake. The clientId must
// match the credential's subject; afterwards the identity is live in the
// registry and signaling is allowed.
func (ctl *SignalWSController) handleRegister(cs *clientSession, data []byte) {
	type registerPayload struct {
		Type     string `json:"type"`
		ClientID string `json:"clientId"`
	}
	var p registerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad register payload")
		ctl.sendError(cs.conn, "validation", "bad_payload")
		return
	}
	if domain.UserID(p.ClientID) != cs.identity {
		log.Warn().Str("module", "signal").Str("id", string(cs.identity)).
			Str("claimed", p.ClientID).Msg("register identity mismatch")
		ctl.sendError(cs.conn, "auth_invalid", "clientId does not match credential")
		return
	}

	ctl.Orch.OnRegister(cs.identity, cs.conn, cs.cancel)
	cs.registered = true

	resp := struct {
		Type       string             `json:"type"`
		ClientID   domain.UserID      `json:"clientId"`
		ICEServers []webrtc.ICEServer `json:"iceServers,omitempty"`
	}{
		Type:       "registered",
		ClientID:   cs.identity,
		ICEServers: ctl.ICE,
	}
	ctl.sendJSON(cs.conn, resp)
}

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleEndCall(cs *clientSession) {
	log.Info().Str("module", "signal").Str("id", string(cs.identity)).Msg("end call")
	ctl.Orch.OnEndCall(cs.identity)
	ctl.sendJSON(cs.conn, map[string]any{
		"type": "matchEnded",
	})
}
