package domain

import "time"

type StreamStatus string

const (
	StreamWaiting StreamStatus = "waiting"
	StreamLive    StreamStatus = "live"
	StreamEnded   StreamStatus = "ended"
)

// LiveSession is the durable record of one live stream. Lifecycle is
// waiting -> live -> ended; ended is terminal. viewers_count/peak_viewers
// are the only fields the real-time core mutates at high frequency, so
// repositories must apply UpdateViewers atomically per session.
type LiveSession struct {
	ID           StreamID
	StreamerID   UserID
	Title        string
	Status       StreamStatus
	ViewersCount int
	PeakViewers  int
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
}

// Start moves the session from waiting to live.
func (s *LiveSession) Start(now time.Time) error {
	if s.Status != StreamWaiting {
		return ErrInvalidStreamState
	}
	s.Status = StreamLive
	s.StartedAt = &now
	return nil
}

// End finishes the session. Ending an already ended session is a no-op and
// must not touch EndedAt.
func (s *LiveSession) End(now time.Time) {
	if s.Status == StreamEnded {
		return
	}
	s.Status = StreamEnded
	s.EndedAt = &now
}

// ApplyViewerDelta adjusts the viewer count, clamped at zero, and keeps
// PeakViewers monotonically non-decreasing.
func (s *LiveSession) ApplyViewerDelta(delta int) int {
	count := s.ViewersCount + delta
	if count < 0 {
		count = 0
	}
	s.ViewersCount = count
	if count > s.PeakViewers {
		s.PeakViewers = count
	}
	return count
}

type Comment struct {
	ID        CommentID `json:"id"`
	StreamID  StreamID  `json:"stream_id"`
	UserID    UserID    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
