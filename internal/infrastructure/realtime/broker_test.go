package realtime

import (
	"testing"
	"time"

	"pulsegram/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testClient(t *testing.T, id string, userID domain.UserID, queueSize int) *Client {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	return newClient(id, userID, string(userID), nil, queueSize, time.Second, time.Hour, logger)
}

func receivedTypes(c *Client) []string {
	var types []string
	for {
		select {
		case ev := <-c.send:
			types = append(types, ev.Type())
		default:
			return types
		}
	}
}

func TestBroker_PublishReachesAllMembers(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	alice := testClient(t, "c1", "alice", 8)
	bob := testClient(t, "c2", "bob", 8)
	broker.Join("chat_lobby", alice)
	broker.Join("chat_lobby", bob)

	broker.Publish("chat_lobby", domain.NewEvent("chat_message", map[string]interface{}{"room": "lobby"}))

	assert.Equal(t, []string{"chat_message"}, receivedTypes(alice))
	assert.Equal(t, []string{"chat_message"}, receivedTypes(bob))
}

func TestBroker_LeaveStopsDelivery(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	alice := testClient(t, "c1", "alice", 8)
	bob := testClient(t, "c2", "bob", 8)
	broker.Join("chat_lobby", alice)
	broker.Join("chat_lobby", bob)
	broker.Leave("chat_lobby", bob)

	broker.Publish("chat_lobby", domain.NewEvent("chat_message", nil))

	assert.Equal(t, []string{"chat_message"}, receivedTypes(alice))
	assert.Empty(t, receivedTypes(bob))
}

func TestBroker_PublishEmptyGroupIsNoOp(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	broker.Publish("chat_nobody", domain.NewEvent("chat_message", nil))

	assert.Equal(t, 0, broker.MemberCount("chat_nobody"))
	assert.Equal(t, 0, broker.GroupCount())
}

func TestBroker_EmptyGroupsAreRemovedEagerly(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	c := testClient(t, "c1", "alice", 8)
	broker.Join("chat_lobby", c)
	require.Equal(t, 1, broker.GroupCount())

	broker.Leave("chat_lobby", c)
	assert.Equal(t, 0, broker.GroupCount())
}

func TestBroker_LeaveWithoutJoinIsNoOp(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	c := testClient(t, "c1", "alice", 8)
	broker.Leave("chat_lobby", c)

	assert.Equal(t, 0, broker.GroupCount())
}

func TestBroker_JoinIsIdempotentPerConnection(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	c := testClient(t, "c1", "alice", 8)
	broker.Join("chat_lobby", c)
	broker.Join("chat_lobby", c)

	require.Equal(t, 1, broker.MemberCount("chat_lobby"))

	broker.Publish("chat_lobby", domain.NewEvent("chat_message", nil))
	assert.Len(t, receivedTypes(c), 1)
}

func TestBroker_RemoveClientClearsEveryGroup(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	c := testClient(t, "c1", "alice", 8)
	broker.Join("chat_lobby", c)
	broker.Join("live_stream_42", c)
	broker.Join("notifications_alice", c)

	broker.RemoveClient(c)

	assert.Empty(t, broker.GroupsOf(c))
	assert.Equal(t, 0, broker.GroupCount())

	broker.Publish("chat_lobby", domain.NewEvent("chat_message", nil))
	assert.Empty(t, receivedTypes(c))
}

func TestBroker_OverflowTriggersDisconnectPolicy(t *testing.T) {
	broker := NewBroker(nil, zaptest.NewLogger(t).Sugar())

	var dropped []*Client
	broker.SetOverflowHandler(func(c *Client) {
		dropped = append(dropped, c)
		broker.RemoveClient(c)
		c.Close()
	})

	slow := testClient(t, "c1", "alice", 1)
	broker.Join("live_stream_42", slow)

	broker.Publish("live_stream_42", domain.NewEvent("new_comment", nil))
	broker.Publish("live_stream_42", domain.NewEvent("new_comment", nil))

	require.Len(t, dropped, 1)
	assert.Same(t, slow, dropped[0])
	assert.Equal(t, 0, broker.MemberCount("live_stream_42"))
}
