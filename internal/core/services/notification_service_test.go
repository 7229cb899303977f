package services

import (
	"context"
	"strings"
	"testing"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"
	"pulsegram/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newNotificationFixture(t *testing.T) (*NotificationService, *memory.NotificationRepository, *memory.UserDirectory, *fakeBroker) {
	t.Helper()
	repo := memory.NewNotificationRepository()
	users := memory.NewUserDirectory()
	broker := &fakeBroker{}
	svc := NewNotificationService(repo, users, broker, nil, zaptest.NewLogger(t).Sugar())

	users.AddUser(&domain.User{ID: "alice", Username: "alice"})
	users.AddUser(&domain.User{ID: "bob", Username: "bob"})
	return svc, repo, users, broker
}

func TestNotify_PersistsThenPushes(t *testing.T) {
	svc, repo, _, broker := newNotificationFixture(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, ports.NotificationInput{
		Recipient: "bob",
		Sender:    "alice",
		Type:      domain.NotificationLike,
		Title:     "New like",
		Message:   "alice liked your post",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "alice", n.SenderUsername)

	unread, err := repo.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	pushed := broker.eventsOfType("new_notification")
	require.Len(t, pushed, 1)
	assert.Equal(t, domain.NotificationsGroup("bob"), pushed[0].group)
}

func TestNotify_SelfNotificationSuppressed(t *testing.T) {
	svc, repo, _, broker := newNotificationFixture(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, ports.NotificationInput{
		Recipient: "alice",
		Sender:    "alice",
		Type:      domain.NotificationLike,
		Title:     "New like",
		Message:   "you liked your own post",
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	unread, err := repo.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
	assert.Empty(t, broker.eventsOfType("new_notification"))
}

func TestMessageCreated_NotifiesEveryoneButSender(t *testing.T) {
	svc, repo, _, broker := newNotificationFixture(t)
	ctx := context.Background()

	room := &domain.Room{
		ID:           "room-1",
		Type:         domain.RoomTypeDirect,
		Participants: []domain.UserID{"alice", "bob"},
	}
	msg := &domain.Message{
		ID:             "msg-1",
		RoomID:         room.ID,
		SenderID:       "alice",
		SenderUsername: "alice",
		Content:        "hello bob",
	}

	svc.MessageCreated(ctx, room, msg)

	unread, err := repo.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	unread, err = repo.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	updates := broker.eventsOfType("conversation_update")
	require.Len(t, updates, 1)
	assert.Equal(t, domain.ChatUpdatesGroup("bob"), updates[0].group)
	assert.Equal(t, "new_message", updates[0].event.Payload["action"])
}

func TestMessageCreated_TruncatesLongPreview(t *testing.T) {
	svc, repo, _, _ := newNotificationFixture(t)
	ctx := context.Background()

	room := &domain.Room{
		ID:           "room-1",
		Type:         domain.RoomTypeDirect,
		Participants: []domain.UserID{"alice", "bob"},
	}
	msg := &domain.Message{
		ID:             "msg-1",
		RoomID:         room.ID,
		SenderID:       "alice",
		SenderUsername: "alice",
		Content:        strings.Repeat("x", 80),
	}

	svc.MessageCreated(ctx, room, msg)

	recent, err := repo.Recent(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "alice: "+strings.Repeat("x", 50)+"...", recent[0].Message)
}

func TestStreamStarted_NotifiesFollowers(t *testing.T) {
	svc, repo, users, broker := newNotificationFixture(t)
	ctx := context.Background()

	users.AddUser(&domain.User{ID: "carol", Username: "carol"})
	users.SetFollowers("alice", []domain.UserID{"bob", "carol"})

	session := &domain.LiveSession{
		ID:         "stream-1",
		StreamerID: "alice",
		Status:     domain.StreamLive,
	}
	svc.StreamStarted(ctx, session)

	for _, follower := range []domain.UserID{"bob", "carol"} {
		recent, err := repo.Recent(ctx, follower, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, domain.NotificationLiveStream, recent[0].Type)
		assert.Equal(t, "stream-1", recent[0].RelatedStreamID)
	}
	assert.Len(t, broker.eventsOfType("new_notification"), 2)
}

func TestTruncateMessage(t *testing.T) {
	assert.Equal(t, "short", TruncateMessage("short", 50))
	assert.Equal(t, strings.Repeat("a", 50)+"...", TruncateMessage(strings.Repeat("a", 51), 50))

	// Rune-aware, not byte-aware
	assert.Equal(t, "ありが...", TruncateMessage("ありがとう", 3))
}
