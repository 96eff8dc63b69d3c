package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/domain"
)

type member struct {
	sess     ClientSession
	presence Presence
}

// Registry is the in-memory room state: resource -> present connections
// plus the inverse connection -> resource index. Both maps start empty
// at process start and live for the process lifetime; nothing else may
// mutate them. Rooms exist implicitly: an entry is created on first
// join and deleted the instant membership becomes empty.
//
// Permission checks happen outside the lock, so every mutating
// operation re-validates current membership at the point of mutation
// instead of trusting state captured before the check.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[domain.ResourceID]map[ConnID]*member
	byConn map[ConnID]domain.ResourceID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[domain.ResourceID]map[ConnID]*member),
		byConn: make(map[ConnID]domain.ResourceID),
	}
}

// Departure reports who is left behind after a connection leaves a room.
type Departure struct {
	Resource  domain.ResourceID
	ConnID    ConnID
	Remaining []ClientSession
}

// JoinResult carries the audiences captured atomically during a join,
// so the caller can emit the departure broadcast for the old room
// strictly before the join broadcast for the new one.
type JoinResult struct {
	Left    *Departure    // non-nil when the connection moved from another room
	Members []PresenceDTO // present before the join, excluding the joiner
	Others  []ClientSession
	Rejoin  bool // already a member of this exact room; no broadcasts due
}

// Join inserts the connection into the room, leaving its previous room
// first if it has one. A connection is a member of at most one room.
// Re-joining the current room is a no-op that only refreshes the
// snapshot (the presence entry, including cursor, survives).
func (r *Registry) Join(sess ClientSession, rid domain.ResourceID) JoinResult {
	id := sess.ID()
	r.mu.Lock()
	defer r.mu.Unlock()

	res := JoinResult{}
	if cur, ok := r.byConn[id]; ok {
		if cur == rid {
			res.Rejoin = true
			res.Members = r.snapshotLocked(rid, id)
			return res
		}
		res.Left = r.removeLocked(id, cur)
	}

	room, ok := r.rooms[rid]
	if !ok {
		room = make(map[ConnID]*member)
		r.rooms[rid] = room
	}
	for _, m := range room {
		res.Members = append(res.Members, m.presence.DTO())
		res.Others = append(res.Others, m.sess)
	}
	room[id] = &member{
		sess:     sess,
		presence: Presence{ConnID: id, Identity: sess.Identity()},
	}
	r.byConn[id] = rid
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Str("resource", string(rid)).Int("peers", len(res.Others)).Msg("joined room")
	return res
}

// Leave removes the connection from the given room. Returns false if
// the connection is not currently a member of that exact room (stale
// or duplicate leave events are no-ops).
func (r *Registry) Leave(id ConnID, rid domain.ResourceID) (*Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byConn[id]; !ok || cur != rid {
		return nil, false
	}
	return r.removeLocked(id, rid), true
}

// Disconnect removes the connection from whatever room it is in, if
// any. Safe to call for connections that never joined a room, and
// idempotent: the second call finds nothing and reports false.
func (r *Registry) Disconnect(id ConnID) (*Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rid, ok := r.byConn[id]
	if !ok {
		return nil, false
	}
	return r.removeLocked(id, rid), true
}

// CursorMove carries the updated presence and its room audience.
type CursorMove struct {
	Presence PresenceDTO
	Others   []ClientSession
}

// UpdateCursor mutates the connection's presence entry. No-op unless
// the connection is currently a member of that exact room; this
// defends against late events arriving after a leave or disconnect.
func (r *Registry) UpdateCursor(id ConnID, rid domain.ResourceID, cur *CursorRange) (CursorMove, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if have, ok := r.byConn[id]; !ok || have != rid {
		return CursorMove{}, false
	}
	m := r.rooms[rid][id]
	m.presence.Cursor = cur
	move := CursorMove{Presence: m.presence.DTO()}
	for cid, other := range r.rooms[rid] {
		if cid == id {
			continue
		}
		move.Others = append(move.Others, other.sess)
	}
	return move, true
}

// Others returns the other members' sessions iff the connection is
// currently a member of the room.
func (r *Registry) Others(id ConnID, rid domain.ResourceID) ([]ClientSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if have, ok := r.byConn[id]; !ok || have != rid {
		return nil, false
	}
	out := make([]ClientSession, 0, len(r.rooms[rid])-1)
	for cid, m := range r.rooms[rid] {
		if cid == id {
			continue
		}
		out = append(out, m.sess)
	}
	return out, true
}

func (r *Registry) RoomOf(id ConnID) (domain.ResourceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rid, ok := r.byConn[id]
	return rid, ok
}

// Snapshot returns the current presence of a room, or ok=false if the
// room does not exist. A room never exists with zero members.
func (r *Registry) Snapshot(rid domain.ResourceID) ([]PresenceDTO, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.rooms[rid]; !ok {
		return nil, false
	}
	return r.snapshotLocked(rid, ""), true
}

type RoomInfo struct {
	Resource    domain.ResourceID `json:"resourceId"`
	MemberCount int               `json:"memberCount"`
}

func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for rid, room := range r.rooms {
		out = append(out, RoomInfo{Resource: rid, MemberCount: len(room)})
	}
	return out
}

func (r *Registry) snapshotLocked(rid domain.ResourceID, skip ConnID) []PresenceDTO {
	room := r.rooms[rid]
	out := make([]PresenceDTO, 0, len(room))
	for cid, m := range room {
		if cid == skip {
			continue
		}
		out = append(out, m.presence.DTO())
	}
	return out
}

// removeLocked detaches the connection from both maps and reports the
// members left behind. The room entry is deleted the moment it becomes
// empty; dangling empty rooms are the primary leak this guards against.
func (r *Registry) removeLocked(id ConnID, rid domain.ResourceID) *Departure {
	room := r.rooms[rid]
	delete(room, id)
	delete(r.byConn, id)
	dep := &Departure{Resource: rid, ConnID: id}
	if len(room) == 0 {
		delete(r.rooms, rid)
		log.Debug().Str("module", "core.registry").Str("resource", string(rid)).Msg("room emptied, entry removed")
		return dep
	}
	dep.Remaining = make([]ClientSession, 0, len(room))
	for _, m := range room {
		dep.Remaining = append(dep.Remaining, m.sess)
	}
	return dep
}
