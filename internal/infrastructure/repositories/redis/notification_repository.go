package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	notifHashPrefix   = "notif:items:"
	notifOrderPrefix  = "notif:order:"
	notifUnreadPrefix = "notif:unread:"
)

// NotificationRepository stores per-recipient notifications as a hash of
// records, a sorted set for recency order and a set of unread ids.
type NotificationRepository struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewNotificationRepository(client *redis.Client, logger *zap.SugaredLogger) *NotificationRepository {
	return &NotificationRepository{client: client, logger: logger}
}

func notifHashKey(user domain.UserID) string   { return notifHashPrefix + string(user) }
func notifOrderKey(user domain.UserID) string  { return notifOrderPrefix + string(user) }
func notifUnreadKey(user domain.UserID) string { return notifUnreadPrefix + string(user) }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = domain.NotificationID(uuid.NewString())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, notifHashKey(n.RecipientID), string(n.ID), data)
	pipe.ZAdd(ctx, notifOrderKey(n.RecipientID), redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: string(n.ID),
	})
	pipe.SAdd(ctx, notifUnreadKey(n.RecipientID), string(n.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipient domain.UserID) (int, error) {
	count, err := r.client.SCard(ctx, notifUnreadKey(recipient)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return int(count), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient domain.UserID, id domain.NotificationID) (bool, error) {
	n, err := r.loadOne(ctx, recipient, id)
	if err != nil {
		return false, err
	}
	if n == nil {
		return false, nil
	}
	if n.IsRead {
		return true, nil
	}

	n.IsRead = true
	if err := r.storeRead(ctx, recipient, n); err != nil {
		return false, err
	}
	return true, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error) {
	ids, err := r.client.SMembers(ctx, notifUnreadKey(recipient)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list unread notifications: %w", err)
	}

	count := 0
	for _, raw := range ids {
		n, err := r.loadOne(ctx, recipient, domain.NotificationID(raw))
		if err != nil {
			return count, err
		}
		if n == nil {
			// Stale unread entry; drop it.
			r.client.SRem(ctx, notifUnreadKey(recipient), raw)
			continue
		}
		n.IsRead = true
		if err := r.storeRead(ctx, recipient, n); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *NotificationRepository) Recent(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error) {
	ids, err := r.client.ZRevRange(ctx, notifOrderKey(recipient), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Notification{}, nil
	}

	values, err := r.client.HMGet(ctx, notifHashKey(recipient), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	notifications := make([]*domain.Notification, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var n domain.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			r.logger.Warnw("skipping corrupt notification record", "recipient", recipient, "error", err)
			continue
		}
		notifications = append(notifications, &n)
	}
	return notifications, nil
}

func (r *NotificationRepository) loadOne(ctx context.Context, recipient domain.UserID, id domain.NotificationID) (*domain.Notification, error) {
	raw, err := r.client.HGet(ctx, notifHashKey(recipient), string(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	var n domain.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) storeRead(ctx context.Context, recipient domain.UserID, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, notifHashKey(recipient), string(n.ID), data)
	pipe.SRem(ctx, notifUnreadKey(recipient), string(n.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)
