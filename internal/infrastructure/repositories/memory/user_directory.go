package memory

import (
	"context"
	"sync"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"
)

// UserDirectory is an in-memory stand-in for the user store. The real-time
// core only reads from it; seeding happens at wiring time or from tests.
type UserDirectory struct {
	mu        sync.RWMutex
	users     map[domain.UserID]*domain.User
	byName    map[string]domain.UserID
	followers map[domain.UserID][]domain.UserID
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users:     make(map[domain.UserID]*domain.User),
		byName:    make(map[string]domain.UserID),
		followers: make(map[domain.UserID][]domain.UserID),
	}
}

func (d *UserDirectory) AddUser(user *domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	d.byName[user.Username] = user.ID
}

func (d *UserDirectory) SetBanned(id domain.UserID, banned bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		u.Banned = banned
	}
}

func (d *UserDirectory) SetFollowers(id domain.UserID, followers []domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.followers[id] = followers
}

func (d *UserDirectory) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (d *UserDirectory) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *d.users[id]
	return &copied, nil
}

func (d *UserDirectory) IsBanned(ctx context.Context, id domain.UserID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	return u.Banned, nil
}

func (d *UserDirectory) Followers(ctx context.Context, id domain.UserID) ([]domain.UserID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	followers := make([]domain.UserID, len(d.followers[id]))
	copy(followers, d.followers[id])
	return followers, nil
}

var _ ports.UserDirectory = (*UserDirectory)(nil)
