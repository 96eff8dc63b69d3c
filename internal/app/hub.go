package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

// Hub orchestrates room operations: every client event passes the
// access gate here before it may touch the registry. The registry
// returns audiences captured atomically with each mutation, so the
// hub's broadcasts cannot observe half-applied membership.
type Hub struct {
	Registry   *core.Registry
	Gate       *AccessGate
	Dispatcher *Dispatcher
}

func NewHub(reg *core.Registry, gate *AccessGate, disp *Dispatcher) *Hub {
	return &Hub{Registry: reg, Gate: gate, Dispatcher: disp}
}

// Register binds the freshly authenticated session into the user
// index. Room membership starts only at the first join.
func (h *Hub) Register(sess core.ClientSession) {
	h.Dispatcher.Register(sess)
}

// Join puts the connection into the resource's room. Requires read
// access; a resource shared with nobody gets no room at all, silently
// (the requester can read it, there is just no one to collaborate
// with). Access denial on join is the one visible denial in this
// layer, since joining is navigation the client must react to.
func (h *Hub) Join(ctx context.Context, sess core.ClientSession, resourceID domain.ResourceID) {
	uid := sess.Identity().UserID
	if !h.Gate.CanAccess(ctx, uid, resourceID, domain.ResourceNote, domain.LevelRead) {
		log.Info().Str("module", "app.hub").Str("conn", string(sess.ID())).Str("resource", string(resourceID)).Msg("join denied")
		h.emit(sess.Signal(), ErrorEvent{Type: EvtError, Message: "access denied"})
		return
	}
	if !h.Gate.HasAnyShare(ctx, resourceID, domain.ResourceNote) {
		log.Debug().Str("module", "app.hub").Str("resource", string(resourceID)).Msg("join skipped, resource has no shares")
		return
	}

	// The gate checks above may have interleaved with other events for
	// this connection; Join re-reads membership under its own lock.
	res := h.Registry.Join(sess, resourceID)

	if res.Left != nil {
		h.broadcast(res.Left.Remaining, UserLeftEvent{Type: EvtUserLeft, ConnID: res.Left.ConnID})
	}
	h.emit(sess.Signal(), RoomJoinedEvent{Type: EvtRoomJoined, ResourceID: resourceID, Members: res.Members})
	if !res.Rejoin {
		h.broadcast(res.Others, UserJoinedEvent{Type: EvtUserJoined, ConnID: sess.ID(), Identity: sess.Identity()})
	}
}

// Leave removes the connection from the room. Stale leaves (wrong or
// no room) are dropped.
func (h *Hub) Leave(sess core.ClientSession, resourceID domain.ResourceID) {
	dep, ok := h.Registry.Leave(sess.ID(), resourceID)
	if !ok {
		return
	}
	h.broadcast(dep.Remaining, UserLeftEvent{Type: EvtUserLeft, ConnID: dep.ConnID})
}

// Disconnect is the abrupt-termination path: leave whatever room the
// connection was in and clear the user index. Idempotent, and safe for
// connections that never joined a room or never authenticated.
func (h *Hub) Disconnect(id core.ConnID) {
	if dep, ok := h.Registry.Disconnect(id); ok {
		h.broadcast(dep.Remaining, UserLeftEvent{Type: EvtUserLeft, ConnID: dep.ConnID})
	}
	h.Dispatcher.Unregister(id)
}

// UpdateCursor mutates this connection's presence entry and tells the
// rest of the room. Dropped unless the connection is currently a
// member of that exact room, which defends against events that were in
// flight when a leave or disconnect landed.
func (h *Hub) UpdateCursor(sess core.ClientSession, resourceID domain.ResourceID, position *core.CursorRange) {
	move, ok := h.Registry.UpdateCursor(sess.ID(), resourceID, position)
	if !ok {
		return
	}
	h.broadcast(move.Others, CursorMovedEvent{
		Type:     EvtCursorMoved,
		ConnID:   sess.ID(),
		UserID:   sess.Identity().UserID,
		Identity: sess.Identity(),
		Position: position,
	})
}

// RelayContent forwards an edit to the other members of the room.
// Edit permission is re-checked on every call, never cached from join
// time: a share revoked mid-session blocks the very next change. On
// denial the event is dropped silently; a revoked collaborator cannot
// tell "access revoked" from a network hiccup through this channel.
func (h *Hub) RelayContent(ctx context.Context, sess core.ClientSession, resourceID domain.ResourceID, content, title string) {
	uid := sess.Identity().UserID
	if !h.Gate.CanAccess(ctx, uid, resourceID, domain.ResourceNote, domain.LevelEdit) {
		log.Debug().Str("module", "app.hub").Str("conn", string(sess.ID())).Str("resource", string(resourceID)).Msg("content change dropped, no edit permission")
		return
	}
	others, ok := h.Registry.Others(sess.ID(), resourceID)
	if !ok {
		return
	}
	h.broadcast(others, ContentUpdateEvent{
		Type:       EvtContentUpdate,
		ResourceID: resourceID,
		Content:    content,
		Title:      title,
		FromUser:   sess.Identity(),
	})
}

// Dispatch delivers an out-of-band event to every connection of one
// user, e.g. "a note was shared with you" from the REST side.
func (h *Hub) Dispatch(userID domain.UserID, event string, payload any) bool {
	return h.Dispatcher.Dispatch(userID, event, payload)
}

func (h *Hub) emit(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("emit marshal")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Msg("emit dropped")
	}
}

func (h *Hub) broadcast(to []core.ClientSession, v any) {
	if len(to) == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("broadcast marshal")
		return
	}
	for _, s := range to {
		if err := s.Signal().TrySend(core.Frame(b)); err != nil {
			log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(s.ID())).Msg("broadcast send dropped")
		}
	}
}
