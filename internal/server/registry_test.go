package server

import (
	"errors"
	"testing"

	"github.com/shadowchat/shadowchat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// testMember records delivered messages and can be told to fail delivery.
type testMember struct {
	msgs       []*ServerMessage
	deliverErr error
}

func (m *testMember) Deliver(msg *ServerMessage) error {
	if m.deliverErr != nil {
		return m.deliverErr
	}

	m.msgs = append(m.msgs, msg)
	return nil
}

func TestRegistry_JoinLeave(t *testing.T) {
	reg := NewRegistry(testutil.TestLogger(t))

	m1 := &testMember{}
	m2 := &testMember{}

	reg.Join("room1", m1)
	reg.Join("room1", m2)
	assert.Len(t, reg.Members("room1"), 2, "expected 2 members after joining")
	assert.Equal(t, 1, reg.NumRooms(), "expected 1 tracked room")

	reg.Leave("room1", m1)
	assert.Len(t, reg.Members("room1"), 1, "expected 1 member after leave")
	assert.Equal(t, 1, reg.NumRooms(), "expected room entry to remain while occupied")

	reg.Leave("room1", m2)
	assert.Empty(t, reg.Members("room1"), "expected no members after all leave")
	assert.Equal(t, 0, reg.NumRooms(), "expected empty room entry to be garbage-collected")
}

func TestRegistry_LeaveUnknownRoom(t *testing.T) {
	reg := NewRegistry(testutil.TestLogger(t))

	// leaving a room that was never joined is a no-op
	reg.Leave("missing", &testMember{})
	assert.Equal(t, 0, reg.NumRooms(), "expected no rooms to be tracked")
}

func TestRegistry_Broadcast(t *testing.T) {
	t.Run("delivers to all members exactly once", func(t *testing.T) {
		reg := NewRegistry(testutil.TestLogger(t))

		members := []*testMember{{}, {}, {}}
		for _, m := range members {
			reg.Join("room1", m)
		}

		msg := &ServerMessage{Type: TypeMsg, Payload: "blob"}
		n := reg.Broadcast("room1", msg)
		assert.Equal(t, 3, n, "expected all 3 members to receive the message")

		for i, m := range members {
			assert.Lenf(t, m.msgs, 1, "expected member %d to receive exactly one message", i)
			assert.Equal(t, msg, m.msgs[0], "expected delivered message to match")
		}
	})

	t.Run("broadcast to unknown room delivers nothing", func(t *testing.T) {
		reg := NewRegistry(testutil.TestLogger(t))

		n := reg.Broadcast("missing", &ServerMessage{Type: TypeMsg})
		assert.Equal(t, 0, n, "expected no deliveries for unknown room")
	})

	t.Run("failed delivery removes member and continues", func(t *testing.T) {
		reg := NewRegistry(testutil.TestLogger(t))

		a := &testMember{}
		b := &testMember{deliverErr: errors.New("transport closed")}
		c := &testMember{}

		reg.Join("room1", a)
		reg.Join("room1", b)
		reg.Join("room1", c)

		n := reg.Broadcast("room1", &ServerMessage{Type: TypeMsg, Payload: "blob"})
		assert.Equal(t, 2, n, "expected delivery to the 2 healthy members")
		assert.Len(t, a.msgs, 1, "expected healthy member a to receive the message")
		assert.Len(t, c.msgs, 1, "expected healthy member c to receive the message")
		assert.Empty(t, b.msgs, "expected broken member to receive nothing")

		assert.Len(t, reg.Members("room1"), 2, "expected broken member to be removed from the room")
		assert.NotContains(t, reg.Members("room1"), Member(b), "expected broken member to be gone")
	})
}
