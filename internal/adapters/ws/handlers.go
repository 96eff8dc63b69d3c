package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

func (ctl *Controller) handleJoin(ctx context.Context, sess core.ClientSession, data []byte) {
	var p struct {
		Type       string `json:"type"`
		ResourceID string `json:"resourceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ResourceID == "" {
		log.Warn().Str("module", "ws").Str("conn", string(sess.ID())).Msg("bad join-room payload, dropping")
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(sess.ID())).Str("resource", p.ResourceID).Msg("join-room")
	ctl.Hub.Join(ctx, sess, domain.ResourceID(p.ResourceID))
}

func (ctl *Controller) handleLeave(sess core.ClientSession, data []byte) {
	var p struct {
		Type       string `json:"type"`
		ResourceID string `json:"resourceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ResourceID == "" {
		log.Warn().Str("module", "ws").Str("conn", string(sess.ID())).Msg("bad leave-room payload, dropping")
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(sess.ID())).Str("resource", p.ResourceID).Msg("leave-room")
	ctl.Hub.Leave(sess, domain.ResourceID(p.ResourceID))
}

func (ctl *Controller) handleContentChange(ctx context.Context, sess core.ClientSession, data []byte) {
	var p struct {
		Type       string `json:"type"`
		ResourceID string `json:"resourceId"`
		Content    string `json:"content"`
		Title      string `json:"title"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ResourceID == "" {
		log.Warn().Str("module", "ws").Str("conn", string(sess.ID())).Msg("bad content-change payload, dropping")
		return
	}
	ctl.Hub.RelayContent(ctx, sess, domain.ResourceID(p.ResourceID), p.Content, p.Title)
}

func (ctl *Controller) handleCursorUpdate(sess core.ClientSession, data []byte) {
	var p struct {
		Type       string            `json:"type"`
		ResourceID string            `json:"resourceId"`
		Position   *core.CursorRange `json:"position"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ResourceID == "" {
		log.Warn().Str("module", "ws").Str("conn", string(sess.ID())).Msg("bad cursor-update payload, dropping")
		return
	}
	ctl.Hub.UpdateCursor(sess, domain.ResourceID(p.ResourceID), p.Position)
}

func (ctl *Controller) handlePing(sess core.ClientSession) {
	ctl.sendJSON(sess.Signal(), struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
