package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/core"
	"github.com/dkeye/Parlor/internal/domain"
)

// Outbound event names. Inbound names live in the signal adapter, which
// owns frame parsing; the coordinator only ever emits.
const (
	evJoinSuccess    = "join-success"
	evJoinError      = "join-error"
	evReceiveMessage = "receive-message"
	evUserTyping     = "user-typing"
	evUserStopTyping = "user-stop-typing"
	evUserJoined     = "user-joined"
	evUserLeft       = "user-left"
	evKicked         = "kicked"
	evRoomClosed     = "room-closed"
)

type joinSuccessEvent struct {
	Type     string           `json:"type"`
	Username string           `json:"username"`
	Role     domain.Role      `json:"role"`
	Users    []core.MemberDTO `json:"users"`
}

type joinErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type receiveMessageEvent struct {
	Type    string      `json:"type"`
	Sender  string      `json:"sender"`
	Role    domain.Role `json:"role"`
	Message string      `json:"message"`
	Time    string      `json:"time"`
}

type typingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type userJoinedEvent struct {
	Type     string           `json:"type"`
	Username string           `json:"username"`
	Role     domain.Role      `json:"role"`
	Users    []core.MemberDTO `json:"users"`
}

type userLeftEvent struct {
	Type     string           `json:"type"`
	Username string           `json:"username"`
	Kicked   bool             `json:"kicked"`
	Users    []core.MemberDTO `json:"users"`
}

type noticeEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("event marshal")
		return nil, false
	}
	return b, true
}
