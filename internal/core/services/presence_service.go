package services

import (
	"context"
	"sort"
	"sync"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"go.uber.org/zap"
)

// PresenceService tracks per-session viewer counts and identity sets. Every
// count mutation is pushed to the session's group as a viewers_update so
// clients never poll. Durable counts go through the live repository, which
// applies them atomically per session.
type PresenceService struct {
	liveRepo ports.LiveRepository
	broker   ports.GroupBroker
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger

	// mu guards viewers and every map nested inside it. Lookup, mutation
	// and empty-entry removal must happen in one critical section so a
	// concurrent join can never land in a map that is about to be dropped.
	mu      sync.Mutex
	viewers map[domain.StreamID]map[domain.UserID]string // user id -> username
}

func NewPresenceService(liveRepo ports.LiveRepository, broker ports.GroupBroker, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *PresenceService {
	return &PresenceService{
		liveRepo: liveRepo,
		broker:   broker,
		metrics:  metrics,
		logger:   logger,
		viewers:  make(map[domain.StreamID]map[domain.UserID]string),
	}
}

// ViewerJoin counts a non-streamer connection in. Callers must not invoke it
// for the streamer's own connection.
func (s *PresenceService) ViewerJoin(ctx context.Context, stream domain.StreamID, user domain.UserID, username string) (int, error) {
	count, err := s.liveRepo.UpdateViewers(ctx, stream, +1)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	names, ok := s.viewers[stream]
	if !ok {
		names = make(map[domain.UserID]string)
		s.viewers[stream] = names
	}
	names[user] = username
	s.mu.Unlock()

	s.publishCount(stream, count)
	s.publishViewerList(stream)
	return count, nil
}

func (s *PresenceService) ViewerLeave(ctx context.Context, stream domain.StreamID, user domain.UserID) (int, error) {
	count, err := s.liveRepo.UpdateViewers(ctx, stream, -1)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if names, ok := s.viewers[stream]; ok {
		delete(names, user)
		// Eagerly drop empty session entries so ephemeral streams do not
		// leak.
		if len(names) == 0 {
			delete(s.viewers, stream)
		}
	}
	s.mu.Unlock()

	s.publishCount(stream, count)
	s.publishViewerList(stream)
	return count, nil
}

func (s *PresenceService) CurrentCount(ctx context.Context, stream domain.StreamID) (int, error) {
	session, err := s.liveRepo.GetSession(ctx, stream)
	if err != nil {
		return 0, err
	}
	return session.ViewersCount, nil
}

func (s *PresenceService) Peak(ctx context.Context, stream domain.StreamID) (int, error) {
	session, err := s.liveRepo.GetSession(ctx, stream)
	if err != nil {
		return 0, err
	}
	return session.PeakViewers, nil
}

func (s *PresenceService) Viewers(stream domain.StreamID) []string {
	s.mu.Lock()
	names, ok := s.viewers[stream]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	list := make([]string, 0, len(names))
	for _, name := range names {
		list = append(list, name)
	}
	s.mu.Unlock()

	sort.Strings(list)
	return list
}

func (s *PresenceService) publishCount(stream domain.StreamID, count int) {
	s.broker.Publish(domain.LiveGroup(stream), domain.NewEvent("viewers_update", map[string]interface{}{
		"count": count,
	}))
	if s.metrics != nil {
		s.metrics.ViewerCount(stream, count)
	}
}

func (s *PresenceService) publishViewerList(stream domain.StreamID) {
	s.broker.Publish(domain.LiveGroup(stream), domain.NewEvent("viewers_list", map[string]interface{}{
		"viewers": s.Viewers(stream),
	}))
}

var _ ports.PresenceTracker = (*PresenceService)(nil)
