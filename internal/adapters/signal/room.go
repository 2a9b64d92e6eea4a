package signal

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/core"
	"github.com/dkeye/Parlor/internal/domain"
)

func (ctl *ChatWSController) handleJoin(
	sid core.SessionID,
	conn *WsChatConn,
	data []byte,
) {
	type joinPayload struct {
		Type     string `json:"type"`
		Username string `json:"username" validate:"required,min=1,max=20"`
		Pin      string `json:"pin" validate:"required"`
		Role     string `json:"role,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":    "join-error",
			"message": "bad payload",
		})
		return
	}
	p.Username = strings.TrimSpace(p.Username)
	p.Pin = strings.TrimSpace(p.Pin)
	if err := ctl.validate.Struct(p); err != nil {
		ctl.sendJSON(conn, map[string]any{
			"type":    "join-error",
			"message": "username and pin are required",
		})
		return
	}
	if !ctl.joins.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendJSON(conn, map[string]any{
			"type":    "join-error",
			"message": "too many join attempts",
		})
		return
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		ctl.sendJSON(conn, map[string]any{
			"type":    "join-error",
			"message": "unknown role",
		})
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("pin", p.Pin).Str("role", role.String()).Msg("join")
	ctl.Coord.Join(sid, p.Username, p.Pin, role)
}

func (ctl *ChatWSController) handleKick(
	sid core.SessionID,
	data []byte,
) {
	type kickPayload struct {
		Type           string `json:"type"`
		TargetUsername string `json:"targetUsername"`
	}
	var p kickPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad kick payload")
		return
	}
	// Kick attempts fail closed; the coordinator decides and stays silent.
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("target", p.TargetUsername).Msg("kick")
	ctl.Coord.Kick(sid, p.TargetUsername)
}
