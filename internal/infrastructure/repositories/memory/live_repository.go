package memory

import (
	"context"
	"sync"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
)

type LiveRepository struct {
	mu         sync.RWMutex
	sessions   map[domain.StreamID]*domain.LiveSession
	comments   map[domain.StreamID][]*domain.Comment
	moderators map[domain.StreamID]map[domain.UserID]bool
	vips       map[domain.StreamID]map[domain.UserID]bool
}

func NewLiveRepository() *LiveRepository {
	return &LiveRepository{
		sessions:   make(map[domain.StreamID]*domain.LiveSession),
		comments:   make(map[domain.StreamID][]*domain.Comment),
		moderators: make(map[domain.StreamID]map[domain.UserID]bool),
		vips:       make(map[domain.StreamID]map[domain.UserID]bool),
	}
}

func (r *LiveRepository) CreateSession(ctx context.Context, streamer domain.UserID, title string) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &domain.LiveSession{
		ID:         domain.StreamID(uuid.NewString()),
		StreamerID: streamer,
		Title:      title,
		Status:     domain.StreamWaiting,
		CreatedAt:  time.Now(),
	}
	r.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

func (r *LiveRepository) GetSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *LiveRepository) StartSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	if err := session.Start(time.Now()); err != nil {
		return nil, err
	}
	copied := *session
	return &copied, nil
}

func (r *LiveRepository) EndSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	session.End(time.Now())
	copied := *session
	return &copied, nil
}

// UpdateViewers holds the repository lock for the whole read-modify-write so
// two simultaneous disconnects cannot lose a decrement.
func (r *LiveRepository) UpdateViewers(ctx context.Context, id domain.StreamID, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return 0, domain.ErrStreamNotFound
	}
	return session.ApplyViewerDelta(delta), nil
}

func (r *LiveRepository) CreateComment(ctx context.Context, id domain.StreamID, user domain.UserID, username, content string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return nil, domain.ErrStreamNotFound
	}

	comment := &domain.Comment{
		ID:        domain.CommentID(uuid.NewString()),
		StreamID:  id,
		UserID:    user,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	r.comments[id] = append(r.comments[id], comment)
	return comment, nil
}

func (r *LiveRepository) GrantModerator(ctx context.Context, id domain.StreamID, user domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrStreamNotFound
	}
	if r.moderators[id] == nil {
		r.moderators[id] = make(map[domain.UserID]bool)
	}
	r.moderators[id][user] = true
	return nil
}

func (r *LiveRepository) GrantVIP(ctx context.Context, id domain.StreamID, user domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrStreamNotFound
	}
	if r.vips[id] == nil {
		r.vips[id] = make(map[domain.UserID]bool)
	}
	r.vips[id][user] = true
	return nil
}

func (r *LiveRepository) IsModerator(ctx context.Context, id domain.StreamID, user domain.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moderators[id][user], nil
}

var _ ports.LiveRepository = (*LiveRepository)(nil)
