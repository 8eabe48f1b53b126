package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/akarpov/Mingle/internal/app"
	"github.com/akarpov/Mingle/internal/config"
	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch      *app.Orchestrator
	Limiter   *MatchRateLimiter
	ICE       []webrtc.ICEServer
	ReadLimit int64
}

func NewSignalWSController(orch *app.Orchestrator, cfg *config.Config) *SignalWSController {
	ice := make([]webrtc.ICEServer, 0, 1)
	if len(cfg.STUNServers) > 0 {
		ice = append(ice, webrtc.ICEServer{URLs: cfg.STUNServers})
	}
	return &SignalWSController{
		Orch:      orch,
		Limiter:   NewMatchRateLimiter(5, time.Minute),
		ICE:       ice,
		ReadLimit: cfg.ReadLimit,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
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

func (c *WsSignalConn) Close() {
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

// clientSession is per-connection dispatch state. The identity comes from
// the verified bearer credential; signaling is refused until the register
// handshake confirms it.
type clientSession struct {
	identity   domain.UserID
	conn       *WsSignalConn
	cancel     context.CancelFunc
	registered bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	identity := domain.UserID(c.GetString("identity"))
	if identity == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	log.Info().Str("module", "signal").Str("id", string(identity)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	cs := &clientSession{identity: identity, conn: conn, cancel: cancel}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cs)
}
