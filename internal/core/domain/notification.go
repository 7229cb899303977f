package domain

import "time"

type NotificationType string

const (
	NotificationLike       NotificationType = "like"
	NotificationComment    NotificationType = "comment"
	NotificationFollow     NotificationType = "follow"
	NotificationMessage    NotificationType = "message"
	NotificationPost       NotificationType = "post"
	NotificationLiveStream NotificationType = "live_stream"
)

// Notification is immutable once created except for the read flag.
type Notification struct {
	ID             NotificationID   `json:"id"`
	RecipientID    UserID           `json:"recipient"`
	SenderID       UserID           `json:"sender,omitempty"`
	SenderUsername string           `json:"sender_username,omitempty"`
	Type           NotificationType `json:"notification_type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created_at"`

	RelatedPostID    string `json:"related_post_id,omitempty"`
	RelatedCommentID string `json:"related_comment_id,omitempty"`
	RelatedStreamID  string `json:"related_live_stream_id,omitempty"`
}
