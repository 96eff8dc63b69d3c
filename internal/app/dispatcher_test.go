package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/domain"
)

func dispatcherSession(id, user string) (core.ClientSession, *fakeConn) {
	conn := &fakeConn{}
	sess := core.NewClientSession(core.ConnID(id), domain.Identity{UserID: domain.UserID(user), DisplayName: user}, conn)
	return sess, conn
}

func TestDispatchMultiDeviceFanOut(t *testing.T) {
	d := NewDispatcher()
	laptop, laptopConn := dispatcherSession("c1", "alice")
	phone, phoneConn := dispatcherSession("c2", "alice")
	d.Register(laptop)
	d.Register(phone)

	ok := d.Dispatch("alice", "resource-shared", map[string]string{"resourceId": "note-7"})
	assert.True(t, ok)

	require.Len(t, laptopConn.frames, 1)
	require.Len(t, phoneConn.frames, 1)

	events := laptopConn.events(t)
	assert.Equal(t, "resource-shared", events[0]["type"])
	payload := events[0]["payload"].(map[string]any)
	assert.Equal(t, "note-7", payload["resourceId"])
}

func TestDispatchOfflineUserReturnsFalse(t *testing.T) {
	d := NewDispatcher()
	assert.False(t, d.Dispatch("nobody", "resource-shared", nil))
}

func TestDispatchIgnoresRoomMembership(t *testing.T) {
	// a registered connection receives targeted events without ever
	// joining a room
	d := NewDispatcher()
	sess, conn := dispatcherSession("c1", "alice")
	d.Register(sess)

	assert.True(t, d.Dispatch("alice", "export-finished", nil))
	assert.Len(t, conn.frames, 1)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	d := NewDispatcher()
	laptop, laptopConn := dispatcherSession("c1", "alice")
	phone, phoneConn := dispatcherSession("c2", "alice")
	d.Register(laptop)
	d.Register(phone)

	d.Unregister("c1")
	assert.True(t, d.Dispatch("alice", "x", nil))
	assert.Empty(t, laptopConn.frames)
	assert.Len(t, phoneConn.frames, 1)

	d.Unregister("c2")
	d.Unregister("c2") // idempotent
	assert.False(t, d.Dispatch("alice", "x", nil))
}

func TestDispatchAllSendsFailReturnsFalse(t *testing.T) {
	d := NewDispatcher()
	conn := &fakeConn{fail: true}
	sess := core.NewClientSession("c1", domain.Identity{UserID: "alice"}, conn)
	d.Register(sess)

	assert.False(t, d.Dispatch("alice", "x", nil))
}
