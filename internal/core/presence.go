package core

import "github.com/tmakar/coscribe/internal/domain"

// CursorRange is a selection span inside a note, as reported by the
// owning connection. From == To for a plain caret.
type CursorRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Presence is one connection's visible participation in a room.
// The cursor is mutated only by the owning connection's events.
type Presence struct {
	ConnID   ConnID
	Identity domain.Identity
	Cursor   *CursorRange
}

// PresenceDTO is a read-only view for the wire (no transport fields).
type PresenceDTO struct {
	ConnID   ConnID          `json:"connectionId"`
	Identity domain.Identity `json:"identity"`
	Cursor   *CursorRange    `json:"cursor"`
}

func (p *Presence) DTO() PresenceDTO {
	return PresenceDTO{ConnID: p.ConnID, Identity: p.Identity, Cursor: p.Cursor}
}
