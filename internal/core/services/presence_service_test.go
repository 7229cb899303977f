package services

import (
	"context"
	"sync"
	"testing"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type publishedEvent struct {
	group string
	event domain.Event
}

type fakeBroker struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (b *fakeBroker) Publish(group string, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedEvent{group: group, event: event})
}

func (b *fakeBroker) MemberCount(group string) int { return 0 }

func (b *fakeBroker) eventsOfType(eventType string) []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []publishedEvent
	for _, p := range b.published {
		if p.event.Type() == eventType {
			out = append(out, p)
		}
	}
	return out
}

func (b *fakeBroker) lastOfType(eventType string) (publishedEvent, bool) {
	events := b.eventsOfType(eventType)
	if len(events) == 0 {
		return publishedEvent{}, false
	}
	return events[len(events)-1], true
}

func newPresenceFixture(t *testing.T) (*PresenceService, *memory.LiveRepository, *fakeBroker, domain.StreamID) {
	t.Helper()
	repo := memory.NewLiveRepository()
	broker := &fakeBroker{}
	svc := NewPresenceService(repo, broker, nil, zaptest.NewLogger(t).Sugar())

	session, err := repo.CreateSession(context.Background(), "streamer", "test stream")
	require.NoError(t, err)
	return svc, repo, broker, session.ID
}

func TestPresence_ViewerJoinCountsAndBroadcasts(t *testing.T) {
	svc, _, broker, stream := newPresenceFixture(t)
	ctx := context.Background()

	count, err := svc.ViewerJoin(ctx, stream, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.ViewerJoin(ctx, stream, "bob", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	last, ok := broker.lastOfType("viewers_update")
	require.True(t, ok)
	assert.Equal(t, domain.LiveGroup(stream), last.group)
	assert.Equal(t, 2, last.event.Payload["count"])

	list, ok := broker.lastOfType("viewers_list")
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, list.event.Payload["viewers"])
}

func TestPresence_ViewerLeaveUpdatesListAndCount(t *testing.T) {
	svc, _, broker, stream := newPresenceFixture(t)
	ctx := context.Background()

	_, err := svc.ViewerJoin(ctx, stream, "alice", "alice")
	require.NoError(t, err)
	_, err = svc.ViewerJoin(ctx, stream, "bob", "bob")
	require.NoError(t, err)

	count, err := svc.ViewerLeave(ctx, stream, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	list, ok := broker.lastOfType("viewers_list")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, list.event.Payload["viewers"])
}

func TestPresence_CountNeverGoesNegative(t *testing.T) {
	svc, _, _, stream := newPresenceFixture(t)
	ctx := context.Background()

	count, err := svc.ViewerLeave(ctx, stream, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	current, err := svc.CurrentCount(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, 0, current)
}

func TestPresence_PeakOnlyAdvances(t *testing.T) {
	svc, _, _, stream := newPresenceFixture(t)
	ctx := context.Background()

	_, err := svc.ViewerJoin(ctx, stream, "alice", "alice")
	require.NoError(t, err)
	_, err = svc.ViewerJoin(ctx, stream, "bob", "bob")
	require.NoError(t, err)
	_, err = svc.ViewerLeave(ctx, stream, "bob")
	require.NoError(t, err)

	peak, err := svc.Peak(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, 2, peak)

	_, err = svc.ViewerJoin(ctx, stream, "carol", "carol")
	require.NoError(t, err)

	peak, err = svc.Peak(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, 2, peak)
}

func TestPresence_UnknownStreamFails(t *testing.T) {
	svc, _, _, _ := newPresenceFixture(t)

	_, err := svc.ViewerJoin(context.Background(), "missing", "alice", "alice")
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestPresence_JoinDuringLastLeaveStaysListed(t *testing.T) {
	svc, _, _, stream := newPresenceFixture(t)
	ctx := context.Background()

	// A join racing the last leave must never end up in a dropped map.
	for i := 0; i < 200; i++ {
		_, err := svc.ViewerJoin(ctx, stream, "alice", "alice")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.ViewerLeave(ctx, stream, "alice")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.ViewerJoin(ctx, stream, "bob", "bob")
			assert.NoError(t, err)
		}()
		wg.Wait()

		assert.Contains(t, svc.Viewers(stream), "bob")

		_, err = svc.ViewerLeave(ctx, stream, "bob")
		require.NoError(t, err)
	}
}

func TestPresence_EmptySessionsAreDropped(t *testing.T) {
	svc, _, _, stream := newPresenceFixture(t)
	ctx := context.Background()

	_, err := svc.ViewerJoin(ctx, stream, "alice", "alice")
	require.NoError(t, err)
	_, err = svc.ViewerLeave(ctx, stream, "alice")
	require.NoError(t, err)

	assert.Nil(t, svc.Viewers(stream))
}
