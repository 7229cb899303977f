package memory

import (
	"context"
	"sync"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[domain.UserID][]*domain.Notification // newest last
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[domain.UserID][]*domain.Notification),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = domain.NotificationID(uuid.NewString())
	}
	r.notifications[n.RecipientID] = append(r.notifications[n.RecipientID], n)
	return nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipient domain.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.notifications[recipient] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient domain.UserID, id domain.NotificationID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications[recipient] {
		if n.ID == id {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications[recipient] {
		if !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) Recent(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.notifications[recipient]
	recent := make([]*domain.Notification, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(recent) < limit; i-- {
		copied := *stored[i]
		recent = append(recent, &copied)
	}
	return recent, nil
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)
