package repositories

import (
	"pulsegram/internal/core/ports"
	"pulsegram/internal/infrastructure/repositories/memory"
	redisrepo "pulsegram/internal/infrastructure/repositories/redis"
	"pulsegram/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory creates repositories with memory fallback when Redis is disabled
// or unreachable.
type Factory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

func NewFactory(cfg *config.Config, logger *zap.SugaredLogger) (*Factory, error) {
	factory := &Factory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis for live sessions and notifications")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateLiveRepository picks the backing store for live sessions. Viewer
// counters are durable state mutated at high frequency, so they get the
// script-based atomic store when Redis is available.
func (f *Factory) CreateLiveRepository() ports.LiveRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewLiveRepository(f.redisClient, f.logger)
	}
	return memory.NewLiveRepository()
}

func (f *Factory) CreateUserDirectory() *memory.UserDirectory {
	return memory.NewUserDirectory()
}

func (f *Factory) CreateRoomRepository(users ports.UserDirectory) ports.RoomRepository {
	return memory.NewRoomRepository(users)
}

// CreateNotificationRepository returns the notification store. Notifications
// are the other durable record this service owns, so they follow the
// live-session store onto Redis when it is available.
func (f *Factory) CreateNotificationRepository() ports.NotificationRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewNotificationRepository(f.redisClient, f.logger)
	}
	return memory.NewNotificationRepository()
}

// Close releases the Redis connection if one was opened.
func (f *Factory) Close() error {
	if f.redisClient != nil {
		return f.redisClient.Close()
	}
	return nil
}
