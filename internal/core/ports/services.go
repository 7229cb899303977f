package ports

import (
	"context"

	"pulsegram/internal/core/domain"
)

// GroupBroker is the publish side of the fan-out layer. Publishing to a group
// nobody joined is a silent no-op.
type GroupBroker interface {
	Publish(group string, event domain.Event)
	MemberCount(group string) int
}

// PresenceTracker maintains viewer counts and identity sets per live session.
// Streamer connections never count as viewers.
type PresenceTracker interface {
	ViewerJoin(ctx context.Context, stream domain.StreamID, user domain.UserID, username string) (int, error)
	ViewerLeave(ctx context.Context, stream domain.StreamID, user domain.UserID) (int, error)
	CurrentCount(ctx context.Context, stream domain.StreamID) (int, error)
	Peak(ctx context.Context, stream domain.StreamID) (int, error)
	Viewers(stream domain.StreamID) []string
}

// NotificationInput is the cross-cutting notify(...) boundary exposed to
// domain-mutation collaborators.
type NotificationInput struct {
	Recipient domain.UserID
	Sender    domain.UserID
	Type      domain.NotificationType
	Title     string
	Message   string

	RelatedPostID    string
	RelatedCommentID string
	RelatedStreamID  string
}

type Notifier interface {
	// Notify persists first, then pushes to the recipient's personal group on
	// a best-effort basis. Self-notifications are suppressed.
	Notify(ctx context.Context, in NotificationInput) (*domain.Notification, error)
}

// MetricsRecorder decouples core services from the metrics backend.
type MetricsRecorder interface {
	ConnectionOpened()
	ConnectionClosed()
	GroupCount(n int)
	EventPublished(eventType string, fanout int)
	MessagePersisted()
	CommentPersisted()
	NotificationCreated()
	ViewerCount(stream domain.StreamID, count int)
}
