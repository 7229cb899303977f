package realtime

import (
	"testing"

	"pulsegram/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestClientDeliver_OnlyUserFiltersOthers(t *testing.T) {
	alice := testClient(t, "c1", "alice", 8)
	bob := testClient(t, "c2", "bob", 8)

	kick := domain.NewEvent("kicked", nil)
	kick.OnlyUser = "bob"

	assert.True(t, alice.Deliver(kick))
	assert.True(t, bob.Deliver(kick))

	assert.Empty(t, receivedTypes(alice))
	assert.Equal(t, []string{"kicked"}, receivedTypes(bob))
}

func TestClientDeliver_ExcludeUserSkipsOriginator(t *testing.T) {
	alice := testClient(t, "c1", "alice", 8)
	bob := testClient(t, "c2", "bob", 8)

	typing := domain.NewEvent("typing", map[string]interface{}{"user": "alice"})
	typing.ExcludeUser = "alice"

	assert.True(t, alice.Deliver(typing))
	assert.True(t, bob.Deliver(typing))

	assert.Empty(t, receivedTypes(alice))
	assert.Equal(t, []string{"typing"}, receivedTypes(bob))
}

func TestClientDeliver_FilteredEventsNeverCountAsOverflow(t *testing.T) {
	alice := testClient(t, "c1", "alice", 1)

	ev := domain.NewEvent("kicked", nil)
	ev.OnlyUser = "bob"

	// Queue capacity is 1 and never drained; filtered deliveries must not
	// report overflow no matter how many arrive.
	for i := 0; i < 5; i++ {
		assert.True(t, alice.Deliver(ev))
	}
	assert.Empty(t, receivedTypes(alice))
}

func TestClientDeliver_FullQueueReportsOverflow(t *testing.T) {
	alice := testClient(t, "c1", "alice", 1)

	assert.True(t, alice.Deliver(domain.NewEvent("chat_message", nil)))
	assert.False(t, alice.Deliver(domain.NewEvent("chat_message", nil)))
}

func TestClientDeliver_ClosedClientAccepts(t *testing.T) {
	alice := testClient(t, "c1", "alice", 1)
	alice.Close()

	// Deliveries to a closed client are dropped silently, not reported as
	// overflow.
	assert.True(t, alice.Deliver(domain.NewEvent("chat_message", nil)))
}

func TestClientClose_Idempotent(t *testing.T) {
	alice := testClient(t, "c1", "alice", 1)
	alice.Close()
	alice.Close()

	select {
	case <-alice.Closed():
	default:
		t.Fatal("expected closed channel")
	}
}
