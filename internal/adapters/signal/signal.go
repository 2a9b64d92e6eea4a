package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parlor/internal/app"
	"github.com/dkeye/Parlor/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const defaultPingPeriod = 54 * time.Second

type ChatWSController struct {
	Coord      *app.Coordinator
	ReadLimit  int64
	PingPeriod time.Duration

	validate *validator.Validate
	joins    *JoinRateLimiter
}

func NewChatWSController(coord *app.Coordinator, readLimit int64, pingPeriod time.Duration) *ChatWSController {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	return &ChatWSController{
		Coord:      coord,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		validate:   validator.New(),
		joins:      NewJoinRateLimiter(5, 10*time.Second),
	}
}

type WsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsChatConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	pongWait := ctl.PingPeriod + 10*time.Second
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	conn := &WsChatConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	if !ctl.Coord.Connect(sid, conn, cancel) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("duplicate connection rejected")
		cancel()
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		return
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
