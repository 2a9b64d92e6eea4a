package core

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/domain"
)

var (
	ErrPinInUse          = errors.New("pin already in use")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNameTaken         = errors.New("name taken")
	ErrRoomFull          = errors.New("room full")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrTargetNotFound    = errors.New("target not found")
	ErrCannotRemoveOwner = errors.New("cannot remove owner")
)

type roomState struct {
	room *domain.Room
	// join order is display order
	members []MemberRef
}

// registryImpl is a threadsafe in-memory room table.
// One lock over the whole table: mutations against a room must serialize
// so the refs a mutation returns always match the state it produced.
// It never closes adapter-owned transport resources.
type registryImpl struct {
	mu sync.RWMutex
	// capacity limits members per room; 0 means unlimited.
	capacity int
	rooms    map[domain.Pin]*roomState
}

func NewRegistry(capacity int) RoomRegistry {
	return &registryImpl{
		capacity: capacity,
		rooms:    make(map[domain.Pin]*roomState),
	}
}

func (r *registryImpl) CreateRoom(pin domain.Pin, sid SessionID, ms MemberSession) ([]MemberRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[pin]; ok {
		return nil, ErrPinInUse
	}
	owner := ms.Meta().Username
	r.rooms[pin] = &roomState{
		room:    &domain.Room{Pin: pin, Owner: owner},
		members: []MemberRef{{SID: sid, Session: ms}},
	}
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Str("owner", owner).Msg("room created")
	return r.membersLocked(pin), nil
}

func (r *registryImpl) AddMember(pin domain.Pin, sid SessionID, ms MemberSession) ([]MemberRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[pin]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.capacity > 0 && len(st.members) >= r.capacity {
		return nil, ErrRoomFull
	}
	name := ms.Meta().Username
	for _, ref := range st.members {
		if strings.EqualFold(ref.Session.Meta().Username, name) {
			return nil, ErrNameTaken
		}
	}
	st.members = append(st.members, MemberRef{SID: sid, Session: ms})
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Str("username", name).Msg("member added")
	return r.membersLocked(pin), nil
}

// RemoveMember drops the member bound to sid. WasOwner signals that the
// caller must cascade-dissolve; otherwise an emptied room is deleted here.
func (r *registryImpl) RemoveMember(pin domain.Pin, sid SessionID) ([]MemberRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[pin]
	if !ok {
		return nil, false
	}
	idx := -1
	for i, ref := range st.members {
		if ref.SID == sid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r.membersLocked(pin), false
	}
	removed := st.members[idx]
	st.members = append(st.members[:idx], st.members[idx+1:]...)
	wasOwner := removed.Session.Meta().Role == domain.RoleOwner

	if len(st.members) == 0 {
		delete(r.rooms, pin)
		log.Info().Str("module", "core.registry").Str("pin", string(pin)).Bool("was_owner", wasOwner).Msg("empty room deleted")
		return nil, wasOwner
	}
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).
		Str("username", removed.Session.Meta().Username).Bool("was_owner", wasOwner).Msg("member removed")
	return r.membersLocked(pin), wasOwner
}

// RemoveMemberByName is the authority-gated removal path. Only the room
// owner may use it, and the owner itself can never be the target.
func (r *registryImpl) RemoveMemberByName(pin domain.Pin, target string, requester SessionID) (MemberRef, []MemberRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[pin]
	if !ok {
		return MemberRef{}, nil, ErrNotAuthorized
	}
	authorized := false
	for _, ref := range st.members {
		if ref.SID == requester {
			switch ref.Session.Meta().Role {
			case domain.RoleOwner:
				authorized = true
			case domain.RoleMember:
			}
			break
		}
	}
	if !authorized {
		return MemberRef{}, nil, ErrNotAuthorized
	}
	idx := -1
	for i, ref := range st.members {
		if strings.EqualFold(ref.Session.Meta().Username, target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return MemberRef{}, nil, ErrTargetNotFound
	}
	removed := st.members[idx]
	if removed.Session.Meta().Role == domain.RoleOwner {
		return MemberRef{}, nil, ErrCannotRemoveOwner
	}
	st.members = append(st.members[:idx], st.members[idx+1:]...)
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).
		Str("username", removed.Session.Meta().Username).Msg("member removed by owner")
	return removed, r.membersLocked(pin), nil
}

// Dissolve forcibly empties and deletes the room, returning the prior
// membership so the caller can notify each departed connection.
func (r *registryImpl) Dissolve(pin domain.Pin) []MemberRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[pin]
	if !ok {
		return nil
	}
	prior := st.members
	delete(r.rooms, pin)
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Int("members", len(prior)).Msg("room dissolved")
	return prior
}

func (r *registryImpl) Lookup(pin domain.Pin) (RoomInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[pin]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return RoomInfo{Pin: pin, Owner: st.room.Owner, MemberCount: len(st.members)}, nil
}

func (r *registryImpl) MembersOf(pin domain.Pin) []MemberRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membersLocked(pin)
}

func (r *registryImpl) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for pin, st := range r.rooms {
		out = append(out, RoomInfo{Pin: pin, Owner: st.room.Owner, MemberCount: len(st.members)})
	}
	return out
}

// membersLocked copies the member list; callers hold r.mu.
func (r *registryImpl) membersLocked(pin domain.Pin) []MemberRef {
	st, ok := r.rooms[pin]
	if !ok {
		return nil
	}
	out := make([]MemberRef, len(st.members))
	copy(out, st.members)
	return out
}
