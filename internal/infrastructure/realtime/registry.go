package realtime

import (
	"sync"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Registry tracks live connections and owns their lifecycle. A connection
// belongs to at most one authenticated user; its handle is valid from
// Register until Unregister.
type Registry struct {
	broker  *Broker
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger

	queueSize    int
	writeTimeout time.Duration
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry(broker *Broker, metrics ports.MetricsRecorder, logger *zap.SugaredLogger, queueSize int, writeTimeout, pingInterval time.Duration) *Registry {
	r := &Registry{
		broker:       broker,
		metrics:      metrics,
		logger:       logger,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		clients:      make(map[string]*Client),
	}
	broker.SetOverflowHandler(r.Unregister)
	return r
}

// Register claims a slot for an authenticated connection and starts its
// write pump.
func (r *Registry) Register(conn *websocket.Conn, userID domain.UserID, username string) *Client {
	c := newClient(uuid.NewString(), userID, username, conn, r.queueSize, r.writeTimeout, r.pingInterval, r.logger)

	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ConnectionOpened()
	}
	go c.writePump()

	r.logger.Infow("connection registered", "client_id", c.ID, "user_id", userID, "username", username)
	return c
}

// Unregister removes the connection from every group it joined, then
// releases its slot and closes the transport. Idempotent: a second call for
// the same handle is a no-op.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	_, known := r.clients[c.ID]
	if known {
		// Group cleanup happens before the slot is released so no publish
		// after this point can reach the dead connection.
		r.broker.RemoveClient(c)
		delete(r.clients, c.ID)
	}
	r.mu.Unlock()

	if !known {
		return
	}
	c.Close()

	if r.metrics != nil {
		r.metrics.ConnectionClosed()
	}
	r.logger.Infow("connection unregistered", "client_id", c.ID, "user_id", c.UserID)
}

// Lookup resolves a handle to its authenticated user.
func (r *Registry) Lookup(clientID string) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	if !ok {
		return "", false
	}
	return c.UserID, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
