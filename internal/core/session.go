package core

import "github.com/tmakar/coscribe/internal/domain"

// ClientSession binds an authenticated identity and its transport
// endpoint. This is what rooms store and fan out to. The identity is
// resolved once at authentication time and never changes afterwards.
type ClientSession interface {
	ID() ConnID
	Identity() domain.Identity
	Signal() SignalConnection
}

type clientSession struct {
	id    ConnID
	ident domain.Identity
	conn  SignalConnection
}

func NewClientSession(id ConnID, ident domain.Identity, conn SignalConnection) ClientSession {
	return &clientSession{id: id, ident: ident, conn: conn}
}

func (s *clientSession) ID() ConnID                { return s.id }
func (s *clientSession) Identity() domain.Identity { return s.ident }
func (s *clientSession) Signal() SignalConnection  { return s.conn }
