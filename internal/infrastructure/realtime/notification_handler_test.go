package realtime

import (
	"context"
	"testing"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newNotificationHandlerFixture(t *testing.T) (*NotificationHandler, *memory.NotificationRepository, *Broker) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	broker := NewBroker(nil, logger)
	repo := memory.NewNotificationRepository()
	return NewNotificationHandler(broker, repo, logger), repo, broker
}

func seedNotification(t *testing.T, repo *memory.NotificationRepository, recipient domain.UserID, title string) *domain.Notification {
	t.Helper()
	n := &domain.Notification{
		RecipientID: recipient,
		Type:        domain.NotificationLike,
		Title:       title,
		Message:     title,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNotificationHandler_OnConnectSendsUnreadCount(t *testing.T) {
	handler, repo, broker := newNotificationHandlerFixture(t)

	seedNotification(t, repo, "alice", "one")
	seedNotification(t, repo, "alice", "two")

	alice := testClient(t, "c1", "alice", 8)
	handler.OnConnect(context.Background(), alice)

	assert.Equal(t, 1, broker.MemberCount(domain.NotificationsGroup("alice")))

	events := drainEvents(alice)
	_, ok := eventOfType(events, "connection_established")
	require.True(t, ok)

	unread, ok := eventOfType(events, "unread_count")
	require.True(t, ok)
	assert.Equal(t, 2, unread.Payload["count"])
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	handler, repo, _ := newNotificationHandlerFixture(t)
	ctx := context.Background()

	n := seedNotification(t, repo, "alice", "one")

	alice := testClient(t, "c1", "alice", 8)
	handler.HandleMessage(ctx, alice, []byte(`{"type":"mark_read","notification_id":"`+string(n.ID)+`"}`))

	ack, ok := eventOfType(drainEvents(alice), "notification_marked_read")
	require.True(t, ok)
	assert.Equal(t, true, ack.Payload["success"])

	count, err := repo.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotificationHandler_MarkReadOnlyOwnRecords(t *testing.T) {
	handler, repo, _ := newNotificationHandlerFixture(t)
	ctx := context.Background()

	n := seedNotification(t, repo, "bob", "bobs")

	alice := testClient(t, "c1", "alice", 8)
	handler.HandleMessage(ctx, alice, []byte(`{"type":"mark_read","notification_id":"`+string(n.ID)+`"}`))

	ack, ok := eventOfType(drainEvents(alice), "notification_marked_read")
	require.True(t, ok)
	assert.Equal(t, false, ack.Payload["success"])

	count, err := repo.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	handler, repo, _ := newNotificationHandlerFixture(t)
	ctx := context.Background()

	seedNotification(t, repo, "alice", "one")
	seedNotification(t, repo, "alice", "two")
	seedNotification(t, repo, "alice", "three")

	alice := testClient(t, "c1", "alice", 8)
	handler.HandleMessage(ctx, alice, []byte(`{"type":"mark_all_read"}`))

	ack, ok := eventOfType(drainEvents(alice), "all_notifications_marked_read")
	require.True(t, ok)
	assert.Equal(t, 3, ack.Payload["count"])

	count, err := repo.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotificationHandler_GetNotificationsNewestFirst(t *testing.T) {
	handler, repo, _ := newNotificationHandlerFixture(t)

	seedNotification(t, repo, "alice", "older")
	seedNotification(t, repo, "alice", "newer")

	alice := testClient(t, "c1", "alice", 8)
	handler.HandleMessage(context.Background(), alice, []byte(`{"type":"get_notifications"}`))

	list, ok := eventOfType(drainEvents(alice), "notifications_list")
	require.True(t, ok)

	notifications := list.Payload["notifications"].([]*domain.Notification)
	require.Len(t, notifications, 2)
	assert.Equal(t, "newer", notifications[0].Title)
	assert.Equal(t, "older", notifications[1].Title)
}
