package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix    = "live:session:"
	commentsKeyPrefix   = "live:comments:"
	moderatorsKeyPrefix = "live:moderators:"
	vipsKeyPrefix       = "live:vips:"
)

// updateViewersScript applies the delta, clamps the count at zero and
// advances the peak in one atomic step on the server side.
var updateViewersScript = redis.NewScript(`
local count = tonumber(redis.call('HINCRBY', KEYS[1], 'viewers_count', ARGV[1]))
if count < 0 then
  count = 0
  redis.call('HSET', KEYS[1], 'viewers_count', 0)
end
local peak = tonumber(redis.call('HGET', KEYS[1], 'peak_viewers') or '0')
if count > peak then
  redis.call('HSET', KEYS[1], 'peak_viewers', count)
end
return count
`)

// endSessionScript makes the ended transition idempotent: ended_at is written
// once and never overwritten.
var endSessionScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status == 'ended' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', 'ended', 'ended_at', ARGV[1])
return 1
`)

type LiveRepository struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewLiveRepository(client *redis.Client, logger *zap.SugaredLogger) *LiveRepository {
	return &LiveRepository{client: client, logger: logger}
}

func sessionKey(id domain.StreamID) string    { return sessionKeyPrefix + string(id) }
func commentsKey(id domain.StreamID) string   { return commentsKeyPrefix + string(id) }
func moderatorsKey(id domain.StreamID) string { return moderatorsKeyPrefix + string(id) }
func vipsKey(id domain.StreamID) string       { return vipsKeyPrefix + string(id) }

func (r *LiveRepository) CreateSession(ctx context.Context, streamer domain.UserID, title string) (*domain.LiveSession, error) {
	session := &domain.LiveSession{
		ID:         domain.StreamID(uuid.NewString()),
		StreamerID: streamer,
		Title:      title,
		Status:     domain.StreamWaiting,
		CreatedAt:  time.Now(),
	}

	err := r.client.HSet(ctx, sessionKey(session.ID), map[string]interface{}{
		"streamer_id":   string(streamer),
		"title":         title,
		"status":        string(domain.StreamWaiting),
		"viewers_count": 0,
		"peak_viewers":  0,
		"created_at":    session.CreatedAt.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *LiveRepository) GetSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrStreamNotFound
	}
	return sessionFromFields(id, fields), nil
}

func (r *LiveRepository) StartSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	session, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StreamWaiting {
		return nil, domain.ErrInvalidStreamState
	}

	now := time.Now()
	err = r.client.HSet(ctx, sessionKey(id),
		"status", string(domain.StreamLive),
		"started_at", now.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	session.Status = domain.StreamLive
	session.StartedAt = &now
	return session, nil
}

func (r *LiveRepository) EndSession(ctx context.Context, id domain.StreamID) (*domain.LiveSession, error) {
	if _, err := r.GetSession(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := endSessionScript.Run(ctx, r.client, []string{sessionKey(id)}, now.Format(time.RFC3339Nano)).Err(); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return r.GetSession(ctx, id)
}

func (r *LiveRepository) UpdateViewers(ctx context.Context, id domain.StreamID, delta int) (int, error) {
	exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return 0, domain.ErrStreamNotFound
	}

	count, err := updateViewersScript.Run(ctx, r.client, []string{sessionKey(id)}, delta).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to update viewers: %w", err)
	}
	return count, nil
}

func (r *LiveRepository) CreateComment(ctx context.Context, id domain.StreamID, user domain.UserID, username, content string) (*domain.Comment, error) {
	if _, err := r.GetSession(ctx, id); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        domain.CommentID(uuid.NewString()),
		StreamID:  id,
		UserID:    user,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment: %w", err)
	}
	if err := r.client.RPush(ctx, commentsKey(id), data).Err(); err != nil {
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}
	return comment, nil
}

func (r *LiveRepository) GrantModerator(ctx context.Context, id domain.StreamID, user domain.UserID) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}
	return r.client.SAdd(ctx, moderatorsKey(id), string(user)).Err()
}

func (r *LiveRepository) GrantVIP(ctx context.Context, id domain.StreamID, user domain.UserID) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}
	return r.client.SAdd(ctx, vipsKey(id), string(user)).Err()
}

func (r *LiveRepository) IsModerator(ctx context.Context, id domain.StreamID, user domain.UserID) (bool, error) {
	return r.client.SIsMember(ctx, moderatorsKey(id), string(user)).Result()
}

func sessionFromFields(id domain.StreamID, fields map[string]string) *domain.LiveSession {
	session := &domain.LiveSession{
		ID:         id,
		StreamerID: domain.UserID(fields["streamer_id"]),
		Title:      fields["title"],
		Status:     domain.StreamStatus(fields["status"]),
	}
	session.ViewersCount, _ = strconv.Atoi(fields["viewers_count"])
	session.PeakViewers, _ = strconv.Atoi(fields["peak_viewers"])

	if v := fields["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			session.CreatedAt = t
		}
	}
	if v := fields["started_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			session.StartedAt = &t
		}
	}
	if v := fields["ended_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			session.EndedAt = &t
		}
	}
	return session
}

var _ ports.LiveRepository = (*LiveRepository)(nil)
