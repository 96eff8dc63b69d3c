package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

// Dispatcher is the connection -> user index, populated at
// authentication time and cleared at disconnect. It delivers events to
// every connection a user currently has open (multi-device fan-out),
// independent of room membership.
type Dispatcher struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]map[core.ConnID]core.ClientSession
	byConn map[core.ConnID]domain.UserID
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byUser: make(map[domain.UserID]map[core.ConnID]core.ClientSession),
		byConn: make(map[core.ConnID]domain.UserID),
	}
}

func (d *Dispatcher) Register(sess core.ClientSession) {
	uid := sess.Identity().UserID
	d.mu.Lock()
	defer d.mu.Unlock()
	conns, ok := d.byUser[uid]
	if !ok {
		conns = make(map[core.ConnID]core.ClientSession)
		d.byUser[uid] = conns
	}
	conns[sess.ID()] = sess
	d.byConn[sess.ID()] = uid
	log.Debug().Str("module", "app.dispatcher").Str("conn", string(sess.ID())).Str("user", string(uid)).Int("devices", len(conns)).Msg("registered connection")
}

// Unregister is idempotent; unknown connections are ignored.
func (d *Dispatcher) Unregister(id core.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	uid, ok := d.byConn[id]
	if !ok {
		return
	}
	delete(d.byConn, id)
	conns := d.byUser[uid]
	delete(conns, id)
	if len(conns) == 0 {
		delete(d.byUser, uid)
	}
}

// Dispatch sends a caller-defined event to every connection the user
// has open. Returns whether at least one connection took the frame;
// there is no retry or queueing, an offline user simply misses it.
func (d *Dispatcher) Dispatch(userID domain.UserID, event string, payload any) bool {
	b, err := json.Marshal(TargetedEvent{Type: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("event", event).Msg("marshal targeted event")
		return false
	}

	d.mu.RLock()
	sessions := make([]core.ClientSession, 0, len(d.byUser[userID]))
	for _, s := range d.byUser[userID] {
		sessions = append(sessions, s)
	}
	d.mu.RUnlock()

	delivered := false
	for _, s := range sessions {
		if err := s.Signal().TrySend(core.Frame(b)); err != nil {
			log.Warn().Err(err).Str("module", "app.dispatcher").Str("conn", string(s.ID())).Str("event", event).Msg("targeted send dropped")
			continue
		}
		delivered = true
	}
	return delivered
}
