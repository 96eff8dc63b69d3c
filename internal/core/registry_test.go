package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmakar/coscribe/internal/domain"
)

type fakeConn struct {
	frames []Frame
	fail   bool
}

func (c *fakeConn) TrySend(f Frame) error {
	if c.fail {
		return errors.New("send failed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func newSession(id, user string) ClientSession {
	return NewClientSession(ConnID(id), domain.Identity{UserID: domain.UserID(user), DisplayName: user}, &fakeConn{})
}

func TestJoinCreatesRoomAndReportsPeers(t *testing.T) {
	reg := NewRegistry()
	alice := newSession("c1", "alice")
	bob := newSession("c2", "bob")

	res := reg.Join(alice, "note-1")
	assert.Nil(t, res.Left)
	assert.Empty(t, res.Members)
	assert.Empty(t, res.Others)

	res = reg.Join(bob, "note-1")
	require.Len(t, res.Members, 1)
	assert.Equal(t, domain.UserID("alice"), res.Members[0].Identity.UserID)
	require.Len(t, res.Others, 1)
	assert.Equal(t, ConnID("c1"), res.Others[0].ID())
}

func TestSingleRoomInvariantOnMove(t *testing.T) {
	reg := NewRegistry()
	mover := newSession("c1", "alice")
	stayer := newSession("c2", "bob")
	other := newSession("c3", "carol")

	reg.Join(mover, "note-a")
	reg.Join(stayer, "note-a")
	reg.Join(other, "note-b")

	res := reg.Join(mover, "note-b")
	require.NotNil(t, res.Left)
	assert.Equal(t, domain.ResourceID("note-a"), res.Left.Resource)
	assert.Equal(t, ConnID("c1"), res.Left.ConnID)
	require.Len(t, res.Left.Remaining, 1)
	assert.Equal(t, ConnID("c2"), res.Left.Remaining[0].ID())

	rid, ok := reg.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ResourceID("note-b"), rid)

	// old room must no longer list the mover
	members, ok := reg.Snapshot("note-a")
	require.True(t, ok)
	require.Len(t, members, 1)
	assert.Equal(t, ConnID("c2"), members[0].ConnID)
}

func TestNoEmptyRoomInvariant(t *testing.T) {
	reg := NewRegistry()
	sess := newSession("c1", "alice")

	reg.Join(sess, "note-1")
	_, ok := reg.Snapshot("note-1")
	assert.True(t, ok)

	dep, ok := reg.Leave("c1", "note-1")
	require.True(t, ok)
	assert.Empty(t, dep.Remaining)

	// room entry must be gone, not present with zero members
	_, ok = reg.Snapshot("note-1")
	assert.False(t, ok)
	assert.Empty(t, reg.Rooms())
}

func TestRejoinSameRoomIsQuiet(t *testing.T) {
	reg := NewRegistry()
	alice := newSession("c1", "alice")
	bob := newSession("c2", "bob")
	reg.Join(alice, "note-1")
	reg.Join(bob, "note-1")

	res := reg.Join(alice, "note-1")
	assert.True(t, res.Rejoin)
	assert.Nil(t, res.Left)
	assert.Empty(t, res.Others)
	require.Len(t, res.Members, 1)
	assert.Equal(t, ConnID("c2"), res.Members[0].ConnID)
}

func TestLeaveWrongRoomIsNoOp(t *testing.T) {
	reg := NewRegistry()
	sess := newSession("c1", "alice")
	reg.Join(sess, "note-1")

	_, ok := reg.Leave("c1", "note-2")
	assert.False(t, ok)

	rid, ok := reg.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.ResourceID("note-1"), rid)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	alice := newSession("c1", "alice")
	bob := newSession("c2", "bob")
	reg.Join(alice, "note-1")
	reg.Join(bob, "note-1")

	dep, ok := reg.Disconnect("c1")
	require.True(t, ok)
	require.Len(t, dep.Remaining, 1)
	assert.Equal(t, ConnID("c2"), dep.Remaining[0].ID())

	_, ok = reg.Disconnect("c1")
	assert.False(t, ok)

	_, ok = reg.RoomOf("c1")
	assert.False(t, ok)
}

func TestDisconnectWithoutJoinIsSafe(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Disconnect("ghost")
	assert.False(t, ok)
}

func TestUpdateCursor(t *testing.T) {
	reg := NewRegistry()
	alice := newSession("c1", "alice")
	bob := newSession("c2", "bob")
	reg.Join(alice, "note-1")
	reg.Join(bob, "note-1")

	move, ok := reg.UpdateCursor("c1", "note-1", &CursorRange{From: 3, To: 9})
	require.True(t, ok)
	require.NotNil(t, move.Presence.Cursor)
	assert.Equal(t, 3, move.Presence.Cursor.From)
	require.Len(t, move.Others, 1)
	assert.Equal(t, ConnID("c2"), move.Others[0].ID())

	// cursor is part of the snapshot new joiners receive
	members, ok := reg.Snapshot("note-1")
	require.True(t, ok)
	for _, m := range members {
		if m.ConnID == "c1" {
			require.NotNil(t, m.Cursor)
			assert.Equal(t, 9, m.Cursor.To)
		}
	}

	// clearing the cursor is a regular update
	move, ok = reg.UpdateCursor("c1", "note-1", nil)
	require.True(t, ok)
	assert.Nil(t, move.Presence.Cursor)
}

func TestUpdateCursorAfterLeaveIsNoOp(t *testing.T) {
	reg := NewRegistry()
	sess := newSession("c1", "alice")
	reg.Join(sess, "note-1")
	reg.Leave("c1", "note-1")

	// stale event arriving after the leave must not resurrect anything
	_, ok := reg.UpdateCursor("c1", "note-1", &CursorRange{From: 1, To: 1})
	assert.False(t, ok)
	_, ok = reg.Snapshot("note-1")
	assert.False(t, ok)
}

func TestUpdateCursorWrongRoomIsNoOp(t *testing.T) {
	reg := NewRegistry()
	sess := newSession("c1", "alice")
	reg.Join(sess, "note-1")

	_, ok := reg.UpdateCursor("c1", "note-2", &CursorRange{From: 0, To: 0})
	assert.False(t, ok)
}

func TestOthersRequiresMembership(t *testing.T) {
	reg := NewRegistry()
	alice := newSession("c1", "alice")
	bob := newSession("c2", "bob")
	reg.Join(alice, "note-1")
	reg.Join(bob, "note-1")

	others, ok := reg.Others("c1", "note-1")
	require.True(t, ok)
	require.Len(t, others, 1)
	assert.Equal(t, ConnID("c2"), others[0].ID())

	_, ok = reg.Others("c1", "note-2")
	assert.False(t, ok)
	_, ok = reg.Others("ghost", "note-1")
	assert.False(t, ok)
}

func TestRoomsIntrospection(t *testing.T) {
	reg := NewRegistry()
	reg.Join(newSession("c1", "alice"), "note-1")
	reg.Join(newSession("c2", "bob"), "note-1")
	reg.Join(newSession("c3", "carol"), "note-2")

	rooms := reg.Rooms()
	require.Len(t, rooms, 2)
	counts := map[domain.ResourceID]int{}
	for _, r := range rooms {
		counts[r.Resource] = r.MemberCount
	}
	assert.Equal(t, 2, counts["note-1"])
	assert.Equal(t, 1, counts["note-2"])
}
