package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/core"
	"github.com/dkeye/Parlor/internal/domain"
)

// ConnectionSession is the coordinator's per-connection record.
// Member is nil while the connection is unbound; a connection is bound to
// at most one room at a time and must unbind before it can bind again.
type ConnectionSession struct {
	Conn   core.SignalConnection
	Cancel context.CancelFunc
	Pin    domain.Pin
	Member *domain.Member
}

// Bound reports whether the connection currently belongs to a room.
func (s ConnectionSession) Bound() bool { return s.Member != nil }

type sessionEntry struct {
	conn   core.SignalConnection
	cancel context.CancelFunc
	pin    domain.Pin
	member *domain.Member
}

// SessionTable maps live connections to their session state. The rooms
// themselves own membership; this table only tracks which room a
// connection is bound to.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[core.SessionID]*sessionEntry)}
}

// Attach registers a freshly connected, unbound session. It refuses a
// sid that is already attached: overwriting would let the first
// transport's disconnect tear down the second one's record.
func (t *SessionTable) Attach(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[sid]; ok {
		log.Warn().Str("module", "app.sessions").Str("sid", string(sid)).Msg("session already attached")
		return false
	}
	t.sessions[sid] = &sessionEntry{conn: conn, cancel: cancel}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("session attached")
	return true
}

func (t *SessionTable) Detach(sid core.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sid)
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("session detached")
}

// Get returns a copy of the session state; mutations go through
// BindRoom/UnbindRoom.
func (t *SessionTable) Get(sid core.SessionID) (ConnectionSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.sessions[sid]
	if !ok {
		return ConnectionSession{}, false
	}
	return ConnectionSession{Conn: e.conn, Cancel: e.cancel, Pin: e.pin, Member: e.member}, true
}

func (t *SessionTable) BindRoom(sid core.SessionID, pin domain.Pin, member *domain.Member) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[sid]
	if !ok || e.member != nil {
		return false
	}
	e.pin = pin
	e.member = member
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).
		Str("pin", string(pin)).Str("username", member.Username).Msg("session bound")
	return true
}

func (t *SessionTable) UnbindRoom(sid core.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[sid]
	if !ok {
		return
	}
	e.pin = ""
	e.member = nil
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("session unbound")
}

// CancelSession fires the connection's cancel func, tearing down its
// transport pumps. Disconnect handling then runs the usual path.
func (t *SessionTable) CancelSession(sid core.SessionID) bool {
	t.mu.RLock()
	e, ok := t.sessions[sid]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	if e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("session canceled")
	return true
}
