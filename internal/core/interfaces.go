package core

import "github.com/dkeye/Parlor/internal/domain"

// Frame is an encoded payload delivered over a signal transport.
type Frame []byte

type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member meta and its transport endpoint.
// This is what the registry stores and the coordinator fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta *domain.Member
	conn SignalConnection
}

func NewMemberSession(meta *domain.Member, conn SignalConnection) MemberSession {
	return &memberSession{meta: meta, conn: conn}
}

func (m *memberSession) Meta() *domain.Member     { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.conn }

// MemberDTO is a read-only membership view for clients (no transport fields).
type MemberDTO struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// MemberRef pairs a live session with its id. Registry mutations return
// the refs they affected so callers can fan out to exactly that set.
type MemberRef struct {
	SID     SessionID
	Session MemberSession
}

// SnapshotOf projects refs into the client-facing membership list,
// preserving join order.
func SnapshotOf(refs []MemberRef) []MemberDTO {
	out := make([]MemberDTO, 0, len(refs))
	for _, ref := range refs {
		m := ref.Session.Meta()
		out = append(out, MemberDTO{Username: m.Username, Role: m.Role})
	}
	return out
}

type RoomInfo struct {
	Pin         domain.Pin `json:"pin"`
	Owner       string     `json:"owner"`
	MemberCount int        `json:"member_count"`
}

// RoomRegistry is the authoritative table of active rooms keyed by pin.
// Every mutation returns the resulting membership so callers never
// recompute state on their own.
type RoomRegistry interface {
	CreateRoom(pin domain.Pin, sid SessionID, ms MemberSession) ([]MemberRef, error)
	AddMember(pin domain.Pin, sid SessionID, ms MemberSession) ([]MemberRef, error)
	RemoveMember(pin domain.Pin, sid SessionID) (remaining []MemberRef, wasOwner bool)
	RemoveMemberByName(pin domain.Pin, target string, requester SessionID) (MemberRef, []MemberRef, error)
	Dissolve(pin domain.Pin) []MemberRef

	Lookup(pin domain.Pin) (RoomInfo, error)
	MembersOf(pin domain.Pin) []MemberRef
	List() []RoomInfo
}
