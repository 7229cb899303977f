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

type liveFrame struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
	TargetUser string          `json:"target_user,omitempty"`
}

// LiveHandler routes live-stream-socket events: comments, chat commands,
// WebRTC signaling relay and the stream-end transition. Privilege checks are
// re-evaluated against the repository on every command, never cached.
type LiveHandler struct {
	broker   *Broker
	live     ports.LiveRepository
	users    ports.UserDirectory
	presence *services.PresenceService
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
}

func NewLiveHandler(broker *Broker, live ports.LiveRepository, users ports.UserDirectory, presence *services.PresenceService, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *LiveHandler {
	return &LiveHandler{
		broker:   broker,
		live:     live,
		users:    users,
		presence: presence,
		metrics:  metrics,
		logger:   logger,
	}
}

// OnConnect wires a freshly accepted connection into the session's group and
// presence. The caller has already authenticated the user and resolved the
// session.
func (h *LiveHandler) OnConnect(ctx context.Context, c *Client, session *domain.LiveSession) {
	c.Stream = session.ID
	c.IsStreamer = session.StreamerID == c.UserID

	h.broker.Join(domain.LiveGroup(session.ID), c)

	if c.IsStreamer {
		// The streamer's own connection never counts as a viewer; it only
		// gets the current list.
		c.Send("viewers_list", map[string]interface{}{
			"viewers": h.presence.Viewers(session.ID),
		})
	} else {
		if _, err := h.presence.ViewerJoin(ctx, session.ID, c.UserID, c.Username); err != nil {
			// Not counted, so not announced either.
			h.logger.Warnw("viewer join failed", "stream", session.ID, "user_id", c.UserID, "error", err)
		} else {
			h.broker.Publish(domain.LiveGroup(session.ID), domain.NewEvent("user_joined", map[string]interface{}{
				"user_id":  c.UserID,
				"username": c.Username,
			}))
		}
	}

	c.Send("connection_established", map[string]interface{}{
		"message":     "Connected to stream",
		"stream_id":   session.ID,
		"is_streamer": c.IsStreamer,
		"user_id":     c.UserID,
	})
}

func (h *LiveHandler) HandleMessage(ctx context.Context, c *Client, raw []byte) {
	var frame liveFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.SendError("invalid message format")
		return
	}

	switch frame.Type {
	case "comment":
		h.handleComment(ctx, c, frame.Content)
	case "request_offer":
		h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent("request_offer", map[string]interface{}{
			"from_user": c.UserID,
		}))
	case "webrtc_offer":
		h.relaySignal(c, "webrtc_offer", "offer", frame.Offer, frame.TargetUser)
	case "webrtc_answer":
		h.relaySignal(c, "webrtc_answer", "answer", frame.Answer, frame.TargetUser)
	case "webrtc_ice_candidate":
		h.relaySignal(c, "webrtc_ice_candidate", "candidate", frame.Candidate, frame.TargetUser)
	case "stream_ended":
		h.handleStreamEnded(ctx, c)
	default:
	}
}

func (h *LiveHandler) handleComment(ctx context.Context, c *Client, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, "/") {
		h.handleCommand(ctx, c, content)
		return
	}

	session, err := h.live.GetSession(ctx, c.Stream)
	if err != nil {
		c.SendError("stream does not exist")
		return
	}
	if session.Status != domain.StreamLive {
		c.SendError("stream is not live")
		return
	}
	if err := validation.CommentContent(content); err != nil {
		c.SendError(err.Error())
		return
	}

	comment, err := h.live.CreateComment(ctx, c.Stream, c.UserID, c.Username, content)
	if err != nil {
		h.logger.Errorw("comment persist failed", "stream", c.Stream, "user_id", c.UserID, "error", err)
		c.SendError("could not post comment")
		return
	}
	if h.metrics != nil {
		h.metrics.CommentPersisted()
	}

	h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent("new_comment", map[string]interface{}{
		"comment": comment,
	}))
}

// relaySignal forwards WebRTC signaling verbatim to the session group with
// from/target tags preserved. The core never inspects SDP or candidates.
func (h *LiveHandler) relaySignal(c *Client, eventType, field string, payload json.RawMessage, targetUser string) {
	if len(payload) == 0 {
		c.SendError(fmt.Sprintf("%s is required", field))
		return
	}
	h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent(eventType, map[string]interface{}{
		field:         payload,
		"from_user":   c.UserID,
		"target_user": targetUser,
	}))
}

func (h *LiveHandler) handleStreamEnded(ctx context.Context, c *Client) {
	session, err := h.live.GetSession(ctx, c.Stream)
	if err != nil {
		c.SendError("stream does not exist")
		return
	}
	if session.StreamerID != c.UserID {
		c.SendError("only the streamer can end the stream")
		return
	}

	if _, err := h.live.EndSession(ctx, c.Stream); err != nil {
		h.logger.Errorw("stream end failed", "stream", c.Stream, "error", err)
		c.SendError("could not end stream")
		return
	}

	h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent("stream_ended", map[string]interface{}{
		"message": "The stream has ended",
	}))
}

func (h *LiveHandler) handleCommand(ctx context.Context, c *Client, content string) {
	parts := strings.Fields(content)
	command := strings.ToLower(parts[0])
	if len(parts) < 2 {
		return
	}
	targetUsername := strings.TrimPrefix(parts[1], "@")

	session, err := h.live.GetSession(ctx, c.Stream)
	if err != nil {
		c.SendError("stream does not exist")
		return
	}
	issuerIsStreamer := session.StreamerID == c.UserID
	issuerIsMod, err := h.live.IsModerator(ctx, c.Stream, c.UserID)
	if err != nil {
		h.logger.Warnw("moderator lookup failed", "stream", c.Stream, "user_id", c.UserID, "error", err)
	}

	target, err := h.users.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		c.SendError(fmt.Sprintf("user %s not found", targetUsername))
		return
	}

	// The streamer is never a valid target, whatever the issuer's role.
	if target.ID == session.StreamerID {
		c.Send("system_message", map[string]interface{}{
			"message": "You cannot take actions against the streamer.",
		})
		return
	}

	switch command {
	case "/mod":
		if !issuerIsStreamer {
			return
		}
		if err := h.live.GrantModerator(ctx, c.Stream, target.ID); err != nil {
			c.SendError("could not assign moderator")
			return
		}
		c.Send("system_message", map[string]interface{}{
			"message": fmt.Sprintf("%s is now a moderator", targetUsername),
		})

	case "/vip":
		if !issuerIsStreamer {
			return
		}
		if err := h.live.GrantVIP(ctx, c.Stream, target.ID); err != nil {
			c.SendError("could not assign VIP")
			return
		}
		c.Send("system_message", map[string]interface{}{
			"message": fmt.Sprintf("%s is now a VIP", targetUsername),
		})

	case "/kick":
		if !issuerIsStreamer && !issuerIsMod {
			return
		}
		// Moderators cannot kick each other; only the streamer can. A failed
		// lookup aborts the command rather than treating the target as a
		// plain viewer.
		if !issuerIsStreamer {
			targetIsMod, err := h.live.IsModerator(ctx, c.Stream, target.ID)
			if err != nil {
				h.logger.Errorw("moderator lookup failed", "stream", c.Stream, "target", target.ID, "error", err)
				c.SendError("could not verify moderator status")
				return
			}
			if targetIsMod {
				c.Send("system_message", map[string]interface{}{
					"message": "You cannot kick a moderator.",
				})
				return
			}
		}

		kick := domain.NewEvent("kicked", map[string]interface{}{
			"message": "You have been kicked from the stream",
		})
		kick.OnlyUser = target.ID
		kick.CloseAfter = true
		h.broker.Publish(domain.LiveGroup(c.Stream), kick)

		h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent("system_message", map[string]interface{}{
			"message": fmt.Sprintf("%s has been kicked.", targetUsername),
		}))
	}
}

func (h *LiveHandler) OnDisconnect(ctx context.Context, c *Client) {
	if c.Stream == "" || c.IsStreamer {
		return
	}

	if _, err := h.presence.ViewerLeave(ctx, c.Stream, c.UserID); err != nil {
		h.logger.Warnw("viewer leave failed", "stream", c.Stream, "user_id", c.UserID, "error", err)
	}
	h.broker.Publish(domain.LiveGroup(c.Stream), domain.NewEvent("user_left", map[string]interface{}{
		"user_id": c.UserID,
	}))
}
