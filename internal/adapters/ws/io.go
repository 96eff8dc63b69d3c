package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drives the connection's event stream. Its exit path is the
// single place disconnect cleanup runs: silently dead peers hit the
// read deadline, abrupt closes hit the read error, both land here.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess core.ClientSession, c *wsConn) {
	sid := sess.ID()
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(sid)).Msg("readPump closing")
		ctl.Hub.Disconnect(sid)
		c.Close()
		cancel()
	}()

	pongWait := ctl.Cfg.PingPeriod + 10*time.Second
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("conn", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(ctx, sess, data)
		}
	}
}

// handleEvent decodes the {type} envelope and fans out to the event
// handlers. A malformed message is dropped; it must never take the
// connection (or anyone else's) down.
func (ctl *Controller) handleEvent(ctx context.Context, sess core.ClientSession, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(sess.ID())).Msg("bad json, dropping")
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoin(ctx, sess, data)
	case "leave-room":
		ctl.handleLeave(sess, data)
	case "content-change":
		ctl.handleContentChange(ctx, sess, data)
	case "cursor-update":
		ctl.handleCursorUpdate(sess, data)
	case "ping":
		ctl.handlePing(sess)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
