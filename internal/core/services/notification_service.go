package services

import (
	"context"
	"fmt"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"go.uber.org/zap"
)

// messagePreviewLen bounds message bodies embedded in notification text.
const messagePreviewLen = 50

// NotificationService persists notification records and pushes them to the
// recipient's personal group. Persistence always wins: a failed push never
// rolls back or blocks the stored record.
type NotificationService struct {
	repo    ports.NotificationRepository
	users   ports.UserDirectory
	broker  ports.GroupBroker
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger
}

func NewNotificationService(repo ports.NotificationRepository, users ports.UserDirectory, broker ports.GroupBroker, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{
		repo:    repo,
		users:   users,
		broker:  broker,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *NotificationService) Notify(ctx context.Context, in ports.NotificationInput) (*domain.Notification, error) {
	// Never notify a user about their own action.
	if in.Sender != "" && in.Sender == in.Recipient {
		return nil, nil
	}

	n := &domain.Notification{
		RecipientID:      in.Recipient,
		SenderID:         in.Sender,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		CreatedAt:        time.Now(),
		RelatedPostID:    in.RelatedPostID,
		RelatedCommentID: in.RelatedCommentID,
		RelatedStreamID:  in.RelatedStreamID,
	}

	if in.Sender != "" {
		if sender, err := s.users.GetUser(ctx, in.Sender); err == nil {
			n.SenderUsername = sender.Username
		}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	if s.metrics != nil {
		s.metrics.NotificationCreated()
	}

	// Best-effort real-time push; the record is already durable.
	s.broker.Publish(domain.NotificationsGroup(in.Recipient), domain.NewEvent("new_notification", map[string]interface{}{
		"notification": n,
	}))

	return n, nil
}

// MessageCreated reacts to a persisted direct message: every other room
// participant gets a message notification plus a conversation_update on their
// chat_updates group.
func (s *NotificationService) MessageCreated(ctx context.Context, room *domain.Room, msg *domain.Message) {
	preview := TruncateMessage(msg.Content, messagePreviewLen)

	for _, recipient := range room.Participants {
		if recipient == msg.SenderID {
			continue
		}

		_, err := s.Notify(ctx, ports.NotificationInput{
			Recipient: recipient,
			Sender:    msg.SenderID,
			Type:      domain.NotificationMessage,
			Title:     "New message",
			Message:   fmt.Sprintf("%s: %s", msg.SenderUsername, preview),
		})
		if err != nil {
			s.logger.Warnw("message notification failed", "recipient", recipient, "error", err)
		}

		s.broker.Publish(domain.ChatUpdatesGroup(recipient), domain.NewEvent("conversation_update", map[string]interface{}{
			"action":          "new_message",
			"chat_room_id":    room.ID,
			"sender_id":       msg.SenderID,
			"sender_username": msg.SenderUsername,
		}))
	}
}

// StreamStarted notifies the streamer's followers that a live session went
// live.
func (s *NotificationService) StreamStarted(ctx context.Context, session *domain.LiveSession) {
	streamer, err := s.users.GetUser(ctx, session.StreamerID)
	if err != nil {
		s.logger.Warnw("streamer lookup failed", "streamer", session.StreamerID, "error", err)
		return
	}

	followers, err := s.users.Followers(ctx, session.StreamerID)
	if err != nil {
		s.logger.Warnw("follower lookup failed", "streamer", session.StreamerID, "error", err)
		return
	}

	for _, follower := range followers {
		_, err := s.Notify(ctx, ports.NotificationInput{
			Recipient:       follower,
			Sender:          session.StreamerID,
			Type:            domain.NotificationLiveStream,
			Title:           "Live now",
			Message:         fmt.Sprintf("%s started a live stream", streamer.Username),
			RelatedStreamID: string(session.ID),
		})
		if err != nil {
			s.logger.Warnw("live stream notification failed", "recipient", follower, "error", err)
		}
	}
}

// TruncateMessage cuts content to max runes and appends an ellipsis marker.
func TruncateMessage(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}

var _ ports.Notifier = (*NotificationService)(nil)
