package realtime

import (
	"sync"
	"time"

	"pulsegram/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is the registry-owned handle for one live connection. Its lifetime
// starts at transport accept and ends at Registry.Unregister, whichever path
// gets there first (normal close, read error, forced kick).
type Client struct {
	ID       string
	UserID   domain.UserID
	Username string

	conn *websocket.Conn
	send chan domain.Event

	// Per-connection protocol state, mutated only by the connection's own
	// read loop.
	CurrentRoom domain.RoomID
	Stream      domain.StreamID
	IsStreamer  bool

	writeTimeout time.Duration
	pingInterval time.Duration

	closeOnce sync.Once
	closed    chan struct{}

	logger *zap.SugaredLogger
}

func newClient(id string, userID domain.UserID, username string, conn *websocket.Conn, queueSize int, writeTimeout, pingInterval time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		ID:           id,
		UserID:       userID,
		Username:     username,
		conn:         conn,
		send:         make(chan domain.Event, queueSize),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		closed:       make(chan struct{}),
		logger:       logger,
	}
}

// Deliver applies the event's delivery filters and enqueues the frame. It
// never blocks; a full queue reports overflow so the caller can apply the
// disconnect-on-overflow policy. Filtered-out events count as delivered.
func (c *Client) Deliver(ev domain.Event) bool {
	if ev.OnlyUser != "" && ev.OnlyUser != c.UserID {
		return true
	}
	if ev.ExcludeUser != "" && ev.ExcludeUser == c.UserID {
		return true
	}

	select {
	case <-c.closed:
		return true
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Send delivers an event to this connection only, bypassing group fan-out.
func (c *Client) Send(eventType string, fields map[string]interface{}) {
	if !c.Deliver(domain.NewEvent(eventType, fields)) {
		c.logger.Warnw("outbound queue full, dropping connection", "client_id", c.ID, "user_id", c.UserID)
		c.Close()
	}
}

// SendError emits a per-sender error frame. The connection stays open.
func (c *Client) SendError(message string) {
	c.Send("error", map[string]interface{}{"message": message})
}

// Close shuts the transport down. Safe to call from any goroutine, any number
// of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) Closed() <-chan struct{} { return c.closed }

// writePump owns all writes to the transport: queued events and keepalive
// pings. One goroutine per connection; exits when the client closes.
func (c *Client) writePump() {
	pingTicker := time.NewTicker(c.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(ev.Payload); err != nil {
				c.logger.Debugw("write failed", "client_id", c.ID, "error", err)
				c.Close()
				return
			}
			if ev.CloseAfter && ev.OnlyUser == c.UserID {
				c.Close()
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.closed:
			return
		}
	}
}
