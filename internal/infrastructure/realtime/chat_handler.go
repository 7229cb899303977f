package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"
	"pulsegram/internal/core/services"
	"pulsegram/pkg/validation"

	"go.uber.org/zap"
)

// EventHandler is the per-socket-type protocol state machine. The server's
// read loop feeds it one inbound frame at a time per connection.
type EventHandler interface {
	HandleMessage(ctx context.Context, c *Client, raw []byte)
	OnDisconnect(ctx context.Context, c *Client)
}

type chatFrame struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// ChatHandler routes chat-socket events. A connection starts in no room,
// joins one explicitly and may rejoin a different one; rejoin is
// leave-then-join so stale group membership cannot accumulate.
type ChatHandler struct {
	broker   *Broker
	rooms    ports.RoomRepository
	users    ports.UserDirectory
	notifier *services.NotificationService
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
}

func NewChatHandler(broker *Broker, rooms ports.RoomRepository, users ports.UserDirectory, notifier *services.NotificationService, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{
		broker:   broker,
		rooms:    rooms,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// OnConnect joins the user's chat_updates group and sends the welcome frame.
func (h *ChatHandler) OnConnect(ctx context.Context, c *Client) {
	h.broker.Join(domain.ChatUpdatesGroup(c.UserID), c)
	c.Send("connection_established", map[string]interface{}{
		"message": "Connected to chat server",
		"user":    c.Username,
	})
}

func (h *ChatHandler) HandleMessage(ctx context.Context, c *Client, raw []byte) {
	var frame chatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.SendError("invalid message format")
		return
	}

	switch frame.Type {
	case "join_room":
		h.handleJoinRoom(c, domain.RoomID(frame.Room))
	case "join_direct":
		h.handleJoinDirect(ctx, c, frame.Username)
	case "send_message":
		h.handleSendMessage(ctx, c, frame)
	case "typing":
		h.handleTyping(c, frame)
	default:
		// Unrecognized types are no-ops, not errors.
	}
}

func (h *ChatHandler) handleJoinRoom(c *Client, room domain.RoomID) {
	if room == "" {
		return
	}

	// Explicit leave-then-join; membership in rooms is never additive.
	if c.CurrentRoom != "" {
		h.broker.Leave(domain.ChatGroup(c.CurrentRoom), c)
	}
	c.CurrentRoom = room
	h.broker.Join(domain.ChatGroup(room), c)

	c.Send("room_joined", map[string]interface{}{
		"room":    room,
		"message": fmt.Sprintf("You joined room %s", room),
	})
}

func (h *ChatHandler) handleJoinDirect(ctx context.Context, c *Client, username string) {
	if username == "" {
		c.SendError("username is required")
		return
	}

	other, err := h.users.GetUserByUsername(ctx, username)
	if err != nil {
		c.SendError(fmt.Sprintf("user %s not found", username))
		return
	}
	if other.ID == c.UserID {
		c.SendError("cannot open a chat with yourself")
		return
	}

	room, err := h.rooms.GetOrCreateDirectRoom(ctx, c.UserID, other.ID)
	if err != nil {
		h.logger.Errorw("direct room resolution failed", "user_id", c.UserID, "other", other.ID, "error", err)
		c.SendError("could not open chat")
		return
	}

	h.handleJoinRoom(c, room)
}

func (h *ChatHandler) handleSendMessage(ctx context.Context, c *Client, frame chatFrame) {
	room := domain.RoomID(frame.Room)
	if room == "" {
		room = c.CurrentRoom
	}
	content := strings.TrimSpace(frame.Message)
	if content == "" || room == "" {
		return
	}
	if err := validation.MessageContent(content); err != nil {
		c.SendError(err.Error())
		return
	}

	// Persist first; the group only sees messages that made it to storage.
	msg, err := h.rooms.CreateMessage(ctx, room, c.UserID, content)
	if err != nil {
		h.logger.Errorw("message persist failed", "room", room, "sender", c.UserID, "error", err)
		c.SendError("could not send message")
		return
	}
	if h.metrics != nil {
		h.metrics.MessagePersisted()
	}

	h.broker.Publish(domain.ChatGroup(room), domain.NewEvent("chat_message", map[string]interface{}{
		"message": map[string]interface{}{
			"id":              msg.ID,
			"content":         msg.Content,
			"sender":          msg.SenderID,
			"sender_id":       msg.SenderID,
			"sender_username": msg.SenderUsername,
			"timestamp":       msg.CreatedAt,
			"is_read":         false,
		},
		"room": room,
	}))

	// Explicit fan-out into notifications; message persistence is the domain
	// mutation that triggers it.
	if roomRecord, err := h.rooms.GetRoom(ctx, room); err == nil {
		h.notifier.MessageCreated(ctx, roomRecord, msg)
	}
}

func (h *ChatHandler) handleTyping(c *Client, frame chatFrame) {
	room := domain.RoomID(frame.Room)
	if room == "" {
		room = c.CurrentRoom
	}
	if room == "" {
		return
	}

	ev := domain.NewEvent("typing", map[string]interface{}{
		"user":      c.Username,
		"is_typing": frame.IsTyping,
		"room":      room,
	})
	// The sender never sees their own typing indicator.
	ev.ExcludeUser = c.UserID
	h.broker.Publish(domain.ChatGroup(room), ev)
}

func (h *ChatHandler) OnDisconnect(ctx context.Context, c *Client) {
	// Registry unregister removes group memberships; nothing else to undo.
}
