// Package ws is the websocket adapter: it authenticates the handshake,
// owns the transport pumps and decodes inbound events for the hub.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/app"
	"github.com/tmakar/coscribe/internal/config"
	"github.com/tmakar/coscribe/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

type Controller struct {
	Hub  *app.Hub
	Auth *app.Authenticator
	Cfg  *config.Config
}

func NewController(hub *app.Hub, auth *app.Authenticator, cfg *config.Config) *Controller {
	return &Controller{Hub: hub, Auth: auth, Cfg: cfg}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
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

func (c *wsConn) Close() {
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

// HandleCollab upgrades the connection, authenticates it exactly once,
// and starts the pumps. A rejected handshake gets a single auth-error
// frame written synchronously before the socket is closed, so clients
// can tell auth failure from a silent drop.
func (ctl *Controller) HandleCollab(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	ident, err := ctl.Auth.Authenticate(ctx, c.Request)
	if err != nil {
		b, _ := json.Marshal(app.AuthErrorEvent{Type: app.EvtAuthError, Message: "authentication failed"})
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteMessage(websocket.TextMessage, b)
		_ = ws.Close()
		return
	}

	sid := core.ConnID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	sess := core.NewClientSession(sid, ident, conn)
	ctl.Hub.Register(sess)
	log.Info().Str("module", "ws").Str("conn", string(sid)).Str("user", string(ident.UserID)).Msg("connection authenticated")

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, sess, conn)
}
