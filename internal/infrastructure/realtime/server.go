package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"
	"pulsegram/internal/core/services"
	"pulsegram/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Config carries the transport tunables for WebSocket connections.
type Config struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	PingInterval      time.Duration
	SendQueueSize     int
	MaxMessageSize    int64
	MessagesPerSecond float64
	MessageBurst      int
}

// Server owns the WebSocket endpoints and the per-connection read loops.
// Handlers for a single connection run one inbound frame at a time in
// arrival order; different connections run fully concurrently.
type Server struct {
	cfg      Config
	registry *Registry
	auth     services.AuthService
	users    ports.UserDirectory
	live     ports.LiveRepository

	chat          *ChatHandler
	liveHandler   *LiveHandler
	notifications *NotificationHandler

	logger *zap.SugaredLogger
}

func NewServer(cfg Config, registry *Registry, auth services.AuthService, users ports.UserDirectory, live ports.LiveRepository, chat *ChatHandler, liveHandler *LiveHandler, notifications *NotificationHandler, logger *zap.SugaredLogger) *Server {
	return &Server{
		cfg:           cfg,
		registry:      registry,
		auth:          auth,
		users:         users,
		live:          live,
		chat:          chat,
		liveHandler:   liveHandler,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *Server) SetupRoutes(router *gin.Engine) {
	router.GET("/ws/chat", s.HandleChat)
	router.GET("/ws/notifications", s.HandleNotifications)
	router.GET("/ws/live/:stream_id", s.HandleLive)
}

// authenticate resolves the JWT from the query string or Authorization
// header, the same places the HTTP side accepts it.
func (s *Server) authenticate(r *http.Request) (*services.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		return nil, services.ErrInvalidToken
	}
	return s.auth.ValidateToken(token)
}

// HandleChat upgrades a chat connection. Chat sockets close immediately on
// failed auth, without an error frame.
func (s *Server) HandleChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	claims, err := s.authenticate(c.Request)
	if err != nil {
		conn.Close()
		return
	}
	if banned, err := s.users.IsBanned(c.Request.Context(), claims.UserID); err != nil || banned {
		conn.Close()
		return
	}

	client := s.registry.Register(conn, claims.UserID, claims.Username)
	s.chat.OnConnect(c.Request.Context(), client)
	s.readLoop(client, s.chat)
}

// HandleLive upgrades a live-stream connection. Stream sockets accept the
// transport first so the client can render an explicit error before close.
func (s *Server) HandleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	claims, err := s.authenticate(c.Request)
	if err != nil {
		s.rejectWithError(conn, "Authentication required")
		return
	}
	if banned, err := s.users.IsBanned(c.Request.Context(), claims.UserID); err != nil || banned {
		s.rejectWithError(conn, "You are banned from this stream")
		return
	}

	streamID := domain.StreamID(c.Param("stream_id"))
	session, err := s.live.GetSession(c.Request.Context(), streamID)
	if err != nil {
		s.rejectWithError(conn, "The stream does not exist")
		return
	}

	client := s.registry.Register(conn, claims.UserID, claims.Username)
	s.liveHandler.OnConnect(c.Request.Context(), client, session)
	s.readLoop(client, s.liveHandler)
}

func (s *Server) HandleNotifications(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	claims, err := s.authenticate(c.Request)
	if err != nil {
		conn.Close()
		return
	}
	if banned, err := s.users.IsBanned(c.Request.Context(), claims.UserID); err != nil || banned {
		conn.Close()
		return
	}

	client := s.registry.Register(conn, claims.UserID, claims.Username)
	s.notifications.OnConnect(c.Request.Context(), client)
	s.readLoop(client, s.notifications)
}

// rejectWithError sends one error frame on a connection that was accepted
// only to carry the rejection, then closes it.
func (s *Server) rejectWithError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	conn.WriteJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	conn.Close()
}

// readLoop drives one connection until it closes. Frames dispatch to the
// handler sequentially; a slow persistence call stalls only this connection.
func (s *Server) readLoop(client *Client, handler EventHandler) {
	conn := client.conn
	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.MessageBurst)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("read error", "client_id", client.ID, "error", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		if !limiter.Allow() {
			client.SendError("rate limit exceeded")
			continue
		}

		ctx, span := tracing.StartSpan(context.Background(), "realtime.handle_message")
		span.SetAttributes(
			attribute.String("client_id", client.ID),
			attribute.String("user_id", string(client.UserID)),
		)
		handler.HandleMessage(ctx, client, raw)
		span.End()
	}

	// Unregister before any further processing so no publish can reach this
	// connection again; disconnect side effects go to the remaining members.
	s.registry.Unregister(client)
	handler.OnDisconnect(context.Background(), client)
}
