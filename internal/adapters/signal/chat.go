package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/core"
)

func (ctl *ChatWSController) handleMessage(sid core.SessionID, data []byte) {
	type messagePayload struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		return
	}
	ctl.Coord.SendMessage(sid, p.Message)
}

func (ctl *ChatWSController) handleTyping(sid core.SessionID) {
	ctl.Coord.Typing(sid)
}

func (ctl *ChatWSController) handleStopTyping(sid core.SessionID) {
	ctl.Coord.StopTyping(sid)
}
