package app

import (
	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

// Server-to-client event names. Client-to-server names live in the
// websocket adapter, which owns inbound decoding.
const (
	EvtAuthError     = "auth-error"
	EvtError         = "error"
	EvtRoomJoined    = "room-joined"
	EvtUserJoined    = "user-joined"
	EvtUserLeft      = "user-left"
	EvtContentUpdate = "content-update"
	EvtCursorMoved   = "cursor-moved"
)

type AuthErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RoomJoinedEvent goes to the joining connection only, carrying the
// full member list so the newcomer renders existing presence without
// racing individual user-joined events.
type RoomJoinedEvent struct {
	Type       string             `json:"type"`
	ResourceID domain.ResourceID  `json:"resourceId"`
	Members    []core.PresenceDTO `json:"members"`
}

type UserJoinedEvent struct {
	Type     string          `json:"type"`
	ConnID   core.ConnID     `json:"connectionId"`
	Identity domain.Identity `json:"identity"`
}

type UserLeftEvent struct {
	Type   string      `json:"type"`
	ConnID core.ConnID `json:"connectionId"`
}

type ContentUpdateEvent struct {
	Type       string            `json:"type"`
	ResourceID domain.ResourceID `json:"resourceId"`
	Content    string            `json:"content"`
	Title      string            `json:"title"`
	FromUser   domain.Identity   `json:"fromUser"`
}

type CursorMovedEvent struct {
	Type     string            `json:"type"`
	ConnID   core.ConnID       `json:"connectionId"`
	UserID   domain.UserID     `json:"userId"`
	Identity domain.Identity   `json:"identity"`
	Position *core.CursorRange `json:"position"`
}

// TargetedEvent wraps caller-defined payloads delivered through the
// dispatcher, e.g. {"type":"resource-shared","payload":{...}}.
type TargetedEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
