package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

func (ctl *SignalWSController) handleFindMatch(cs *clientSession, data []byte) {
	if !ctl.Limiter.Allow(cs.identity) {
		log.Warn().Str("module", "signal").Str("id", string(cs.identity)).Msg("find_match rate limited")
		ctl.sendError(cs.conn, "capacity", "too many match requests, slow down")
		return
	}

	type findPayload struct {
		Type            string        `json:"type"`
		Gender          domain.Gender `json:"gender,omitempty"`
		PreferredGender domain.Gender `json:"preferredGender,omitempty"`
		Country         string        `json:"country,omitempty"`
	}
	var p findPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad find_match payload")
		ctl.sendError(cs.conn, "validation", "bad_payload")
		return
	}

	attrs := domain.MatchAttributes{
		Gender:          p.Gender,
		PreferredGender: p.PreferredGender,
		Country:         p.Country,
	}
	log.Info().Str("module", "signal").Str("id", string(cs.identity)).Msg("find match")
	if err := ctl.Orch.OnFindMatch(cs.identity, attrs); err != nil {
		ctl.sendError(cs.conn, core.CodeOf(err), err.Error())
	}
}

func (ctl *SignalWSController) handleCancelMatch(cs *clientSession) {
	log.Info().Str("module", "signal").Str("id", string(cs.identity)).Msg("cancel match")
	canceled := ctl.Orch.OnCancelMatch(cs.identity)
	ctl.sendJSON(cs.conn, map[string]any{
		"type":     "matchingCancelled",
		"canceled": canceled,
	})
}
