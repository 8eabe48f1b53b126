package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cs *clientSession) {
	defer func() {
		log.Info().Str("module", "signal").Str("id", string(cs.identity)).Msg("readPump closing")
		if cs.registered {
			ctl.Orch.OnDisconnect(cs.identity, cs.conn)
		}
		cs.cancel()
		cs.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("id", string(cs.identity)).Msg("readPump ctx done")
			return
		default:
			_, data, err := cs.conn.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("id", string(cs.identity)).Msg("readPump read error")
				return
			}
			ctl.dispatch(cs, data)
		}
	}
}

// dispatch routes one inbound envelope. Errors here are request-scoped:
// they produce a matchingError event and never tear down the connection.
func (ctl *SignalWSController) dispatch(cs *clientSession, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(cs.conn, "validation", "malformed message")
		return
	}

	if !cs.registered && env.Type != "register" && env.Type != "ping" {
		ctl.sendError(cs.conn, "validation", "register first")
		return
	}

	switch env.Type {
	case "register":
		ctl.handleRegister(cs, data)
	case "ping":
		ctl.handlePing(cs.conn)
	case "find_match":
		ctl.handleFindMatch(cs, data)
	case "cancel_match":
		ctl.handleCancelMatch(cs)
	case "offer", "answer", "ice-candidate":
		ctl.handleSignalMessage(cs, env.Type, data)
	case "end_call":
		ctl.handleEndCall(cs)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message type")
		ctl.sendError(cs.conn, "validation", "unknown message type")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code, message string) {
	ctl.sendJSON(c, core.MatchingErrorEvent{
		Type:    core.EventMatchingError,
		Message: message,
		Code:    code,
	})
}
