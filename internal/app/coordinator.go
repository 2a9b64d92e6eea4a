package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/core"
	"github.com/dkeye/Parlor/internal/domain"
)

// Coordinator translates client intents into registry mutations and
// decides which connections receive which event. Broadcast sets are
// always derived from the refs returned by the mutation itself, never
// from cached membership.
type Coordinator struct {
	Sessions *SessionTable
	Rooms    core.RoomRegistry
	Policy   Policy
}

func NewCoordinator(sessions *SessionTable, rooms core.RoomRegistry, policy Policy) *Coordinator {
	return &Coordinator{Sessions: sessions, Rooms: rooms, Policy: policy}
}

// Connect registers a new transport endpoint in the Unbound state. It
// reports false when the session id already has a live connection.
func (c *Coordinator) Connect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) bool {
	return c.Sessions.Attach(sid, conn, cancel)
}

// Join admits the connection into the room identified by pin, creating
// the room when the requested role is owner. A bound connection cannot
// join again without unbinding first.
func (c *Coordinator) Join(sid core.SessionID, username, rawPin string, role domain.Role) {
	sess, ok := c.Sessions.Get(sid)
	if !ok {
		return
	}
	if sess.Bound() {
		c.joinError(sess.Conn, "already in a room")
		return
	}

	member, err := domain.NewMember(username, role)
	if err != nil {
		c.joinError(sess.Conn, joinErrorMessage(err))
		return
	}
	pin, err := domain.NewPin(rawPin)
	if err != nil {
		c.joinError(sess.Conn, joinErrorMessage(err))
		return
	}

	ms := core.NewMemberSession(member, sess.Conn)
	var refs []core.MemberRef
	switch role {
	case domain.RoleOwner:
		refs, err = c.Rooms.CreateRoom(pin, sid, ms)
	case domain.RoleMember:
		refs, err = c.Rooms.AddMember(pin, sid, ms)
	}
	if err != nil {
		c.joinError(sess.Conn, joinErrorMessage(err))
		return
	}
	if !c.Sessions.BindRoom(sid, pin, member) {
		// The connection went away (or bound elsewhere) between validation
		// and admission; roll the registry back so no ghost member remains.
		c.Rooms.RemoveMember(pin, sid)
		log.Error().Str("module", "app.coordinator").Str("sid", string(sid)).
			Str("pin", string(pin)).Msg("bind failed after admission, rolled back")
		return
	}

	users := core.SnapshotOf(refs)
	c.unicast(sess.Conn, joinSuccessEvent{
		Type:     evJoinSuccess,
		Username: member.Username,
		Role:     member.Role,
		Users:    users,
	})
	// The joiner learns the membership from join-success; everyone else
	// from user-joined. Nothing to announce for a fresh owner room.
	if role == domain.RoleMember {
		c.fanout(pin, refs, sid, userJoinedEvent{
			Type:     evUserJoined,
			Username: member.Username,
			Role:     member.Role,
			Users:    users,
		})
	}
}

// SendMessage relays a chat line to the whole room, sender included;
// the sender renders its own message from the echo. Empty bodies are
// dropped without an error.
func (c *Coordinator) SendMessage(sid core.SessionID, text string) {
	sess, ok := c.Sessions.Get(sid)
	if !ok || !sess.Bound() {
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	refs := c.Rooms.MembersOf(sess.Pin)
	c.fanout(sess.Pin, refs, "", receiveMessageEvent{
		Type:    evReceiveMessage,
		Sender:  sess.Member.Username,
		Role:    sess.Member.Role,
		Message: text,
		Time:    time.Now().Format("15:04"),
	})
}

// Typing notifies everyone except the sender. Repeated starts are
// idempotent for clients; the coordinator keeps no typing state.
func (c *Coordinator) Typing(sid core.SessionID) {
	c.typingState(sid, evUserTyping)
}

func (c *Coordinator) StopTyping(sid core.SessionID) {
	c.typingState(sid, evUserStopTyping)
}

func (c *Coordinator) typingState(sid core.SessionID, event string) {
	sess, ok := c.Sessions.Get(sid)
	if !ok || !sess.Bound() {
		return
	}
	refs := c.Rooms.MembersOf(sess.Pin)
	c.fanout(sess.Pin, refs, sid, typingEvent{Type: event, Username: sess.Member.Username})
}

// Kick removes the named member on the owner's authority. Invalid
// attempts fail closed: no feedback reaches the requester.
func (c *Coordinator) Kick(sid core.SessionID, target string) {
	sess, ok := c.Sessions.Get(sid)
	if !ok || !sess.Bound() {
		return
	}
	switch sess.Member.Role {
	case domain.RoleOwner:
	case domain.RoleMember:
		log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Msg("kick denied: not owner")
		return
	}
	removed, remaining, err := c.Rooms.RemoveMemberByName(sess.Pin, target, sid)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").
			Str("pin", string(sess.Pin)).Str("target", target).Msg("kick dropped")
		return
	}
	// Unbind the target regardless of whether its transport still listens.
	c.unicast(removed.Session.Signal(), noticeEvent{Type: evKicked, Message: "you have been removed from the room"})
	c.Sessions.UnbindRoom(removed.SID)

	c.fanout(sess.Pin, remaining, "", userLeftEvent{
		Type:     evUserLeft,
		Username: removed.Session.Meta().Username,
		Kicked:   true,
		Users:    core.SnapshotOf(remaining),
	})
}

// OnDisconnect is invoked by the transport when a connection closes for
// any reason. An owner's departure dissolves the whole room.
func (c *Coordinator) OnDisconnect(sid core.SessionID) {
	sess, ok := c.Sessions.Get(sid)
	if !ok {
		return
	}
	defer c.Sessions.Detach(sid)
	if !sess.Bound() {
		return
	}

	remaining, wasOwner := c.Rooms.RemoveMember(sess.Pin, sid)
	if wasOwner {
		// A sole owner empties the room and RemoveMember already deleted
		// it; dissolving again could tear down a new room on the same pin.
		if len(remaining) > 0 {
			prior := c.Rooms.Dissolve(sess.Pin)
			for _, ref := range prior {
				if ref.SID == sid {
					continue
				}
				c.unicast(ref.Session.Signal(), noticeEvent{Type: evRoomClosed, Message: "room closed by owner"})
				c.Sessions.UnbindRoom(ref.SID)
			}
		}
		log.Info().Str("module", "app.coordinator").Str("pin", string(sess.Pin)).Msg("owner left, room dissolved")
		return
	}
	if len(remaining) == 0 {
		return
	}
	c.fanout(sess.Pin, remaining, "", userLeftEvent{
		Type:     evUserLeft,
		Username: sess.Member.Username,
		Kicked:   false,
		Users:    core.SnapshotOf(remaining),
	})
}

func (c *Coordinator) joinError(conn core.SignalConnection, msg string) {
	c.unicast(conn, joinErrorEvent{Type: evJoinError, Message: msg})
}

func (c *Coordinator) unicast(conn core.SignalConnection, v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	_ = conn.TrySend(frame)
}

// fanout delivers to every ref except exclude, then lets the policy deal
// with endpoints whose send buffer is full.
func (c *Coordinator) fanout(pin domain.Pin, refs []core.MemberRef, exclude core.SessionID, v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	var dropped []core.MemberRef
	for _, ref := range refs {
		if ref.SID == exclude {
			continue
		}
		if err := ref.Session.Signal().TrySend(frame); err != nil {
			dropped = append(dropped, ref)
		}
	}
	if c.Policy == nil {
		return
	}
	for _, slow := range dropped {
		switch c.Policy.OnBackPressure(pin, slow) {
		case KickMember:
			// Same teardown as a transport close: cancel the pumps and
			// drop the membership now instead of waiting on the socket.
			c.Sessions.CancelSession(slow.SID)
			c.OnDisconnect(slow.SID)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUsernameEmpty):
		return "username is required"
	case errors.Is(err, domain.ErrUsernameTooLong):
		return "username must be at most 20 characters"
	case errors.Is(err, domain.ErrPinEmpty):
		return "pin is required"
	case errors.Is(err, domain.ErrPinTooLong):
		return "pin is too long"
	case errors.Is(err, core.ErrPinInUse):
		return "pin already in use"
	case errors.Is(err, core.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, core.ErrNameTaken):
		return "name already taken"
	case errors.Is(err, core.ErrRoomFull):
		return "room is full"
	default:
		return "unable to join"
	}
}
