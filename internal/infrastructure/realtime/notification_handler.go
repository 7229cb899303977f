package realtime

import (
	"context"
	"encoding/json"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"go.uber.org/zap"
)

const recentNotificationsLimit = 20

type notificationFrame struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id,omitempty"`
}

// NotificationHandler serves each user's private notification socket: unread
// counts on connect, read-state mutations and recent history on demand.
// Pushes of new notifications come from the NotificationFanout side, not from
// this handler.
type NotificationHandler struct {
	broker *Broker
	repo   ports.NotificationRepository
	logger *zap.SugaredLogger
}

func NewNotificationHandler(broker *Broker, repo ports.NotificationRepository, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{
		broker: broker,
		repo:   repo,
		logger: logger,
	}
}

func (h *NotificationHandler) OnConnect(ctx context.Context, c *Client) {
	h.broker.Join(domain.NotificationsGroup(c.UserID), c)

	c.Send("connection_established", map[string]interface{}{
		"message": "Connected to notification service",
		"user_id": c.UserID,
	})

	count, err := h.repo.UnreadCount(ctx, c.UserID)
	if err != nil {
		h.logger.Warnw("unread count failed", "user_id", c.UserID, "error", err)
		return
	}
	c.Send("unread_count", map[string]interface{}{"count": count})
}

func (h *NotificationHandler) HandleMessage(ctx context.Context, c *Client, raw []byte) {
	var frame notificationFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.SendError("invalid message format")
		return
	}

	switch frame.Type {
	case "mark_read":
		if frame.NotificationID == "" {
			return
		}
		ok, err := h.repo.MarkRead(ctx, c.UserID, domain.NotificationID(frame.NotificationID))
		if err != nil {
			h.logger.Warnw("mark read failed", "user_id", c.UserID, "notification_id", frame.NotificationID, "error", err)
			ok = false
		}
		c.Send("notification_marked_read", map[string]interface{}{
			"notification_id": frame.NotificationID,
			"success":         ok,
		})

	case "mark_all_read":
		count, err := h.repo.MarkAllRead(ctx, c.UserID)
		if err != nil {
			c.SendError("could not mark notifications read")
			return
		}
		c.Send("all_notifications_marked_read", map[string]interface{}{"count": count})

	case "get_notifications":
		notifications, err := h.repo.Recent(ctx, c.UserID, recentNotificationsLimit)
		if err != nil {
			c.SendError("could not load notifications")
			return
		}
		c.Send("notifications_list", map[string]interface{}{"notifications": notifications})

	default:
	}
}

func (h *NotificationHandler) OnDisconnect(ctx context.Context, c *Client) {}
