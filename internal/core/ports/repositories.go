package ports

import (
	"context"

	"pulsegram/internal/core/domain"
)

// UserDirectory is the read-side boundary to the user store. The real-time
// core never mutates users.
type UserDirectory interface {
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	IsBanned(ctx context.Context, id domain.UserID) (bool, error)
	Followers(ctx context.Context, id domain.UserID) ([]domain.UserID, error)
}

type RoomRepository interface {
	// CreateMessage persists a message and bumps the room's last-activity
	// timestamp. The room is created implicitly when the identifier does not
	// resolve to an existing room.
	CreateMessage(ctx context.Context, room domain.RoomID, sender domain.UserID, content string) (*domain.Message, error)
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	// GetOrCreateDirectRoom resolves the two-party room between a and b,
	// creating it on first use.
	GetOrCreateDirectRoom(ctx context.Context, a, b domain.UserID) (domain.RoomID, error)
	RoomsForUser(ctx context.Context, user domain.UserID) ([]domain.RoomID, error)
}

type LiveRepository interface {
	CreateSession(ctx context.Context, streamer domain.UserID, title string) (*domain.LiveSession, error)
	GetSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error)
	// StartSession transitions waiting -> live.
	StartSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error)
	// EndSession is idempotent; ending an ended session changes nothing.
	EndSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error)
	// UpdateViewers applies delta atomically per session, clamps the count at
	// zero and advances the peak. Returns the new count.
	UpdateViewers(ctx context.Context, id domain.StreamID, delta int) (int, error)
	CreateComment(ctx context.Context, id domain.StreamID, user domain.UserID, username, content string) (*domain.Comment, error)
	GrantModerator(ctx context.Context, id domain.StreamID, user domain.UserID) error
	GrantVIP(ctx context.Context, id domain.StreamID, user domain.UserID) error
	IsModerator(ctx context.Context, id domain.StreamID, user domain.UserID) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	UnreadCount(ctx context.Context, recipient domain.UserID) (int, error)
	MarkRead(ctx context.Context, recipient domain.UserID, id domain.NotificationID) (bool, error)
	MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error)
	Recent(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error)
}
