package http

import (
	"errors"
	"net/http"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"
	"pulsegram/internal/core/services"
	"pulsegram/internal/infrastructure/realtime"
	apperrors "pulsegram/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RealtimeHandler is the REST boundary into the fan-out core: domain
// mutations that happen over HTTP push their real-time side effects through
// it.
type RealtimeHandler struct {
	broker        *realtime.Broker
	registry      *realtime.Registry
	live          ports.LiveRepository
	users         ports.UserDirectory
	rooms         ports.RoomRepository
	notifications ports.NotificationRepository
	notifier      *services.NotificationService
	presence      *services.PresenceService
}

func NewRealtimeHandler(
	broker *realtime.Broker,
	registry *realtime.Registry,
	live ports.LiveRepository,
	users ports.UserDirectory,
	rooms ports.RoomRepository,
	notifications ports.NotificationRepository,
	notifier *services.NotificationService,
	presence *services.PresenceService,
) *RealtimeHandler {
	return &RealtimeHandler{
		broker:        broker,
		registry:      registry,
		live:          live,
		users:         users,
		rooms:         rooms,
		notifications: notifications,
		notifier:      notifier,
		presence:      presence,
	}
}

func (h *RealtimeHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1", auth)
	{
		api.POST("/broadcast", h.Broadcast)
		api.POST("/live", h.CreateLiveSession)
		api.POST("/live/:id/start", h.StartLiveSession)
		api.POST("/live/:id/end", h.EndLiveSession)
		api.GET("/live/:id", h.GetLiveSession)
		api.POST("/notify", h.Notify)
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
		api.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		api.POST("/profile/broadcast", h.BroadcastProfileUpdate)
	}
}

func (h *RealtimeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"connections": h.registry.Count(),
		"groups":      h.broker.GroupCount(),
	})
}

// Broadcast is the broadcastToGroup boundary for HTTP-side collaborators.
func (h *RealtimeHandler) Broadcast(c *gin.Context) {
	var req struct {
		Group string                 `json:"group" binding:"required"`
		Event map[string]interface{} `json:"event" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventType, _ := req.Event["type"].(string)
	if eventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event.type is required"})
		return
	}

	delete(req.Event, "type")
	h.broker.Publish(req.Group, domain.NewEvent(eventType, req.Event))
	c.JSON(http.StatusAccepted, gin.H{"group": req.Group, "recipients": h.broker.MemberCount(req.Group)})
}

func (h *RealtimeHandler) CreateLiveSession(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(domain.UserID)
	session, err := h.live.CreateSession(c.Request.Context(), userID, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *RealtimeHandler) GetLiveSession(c *gin.Context) {
	session, err := h.live.GetSession(c.Request.Context(), domain.StreamID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"viewers": h.presence.Viewers(session.ID),
	})
}

// StartLiveSession transitions waiting -> live, notifies the streamer's
// followers and pushes stream_started into the session group.
func (h *RealtimeHandler) StartLiveSession(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))
	userID := c.MustGet("user_id").(domain.UserID)

	session, err := h.live.GetSession(c.Request.Context(), streamID)
	if err != nil {
		writeError(c, err)
		return
	}
	if session.StreamerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the streamer can start the stream"})
		return
	}

	session, err = h.live.StartSession(c.Request.Context(), streamID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.notifier.StreamStarted(c.Request.Context(), session)
	h.broker.Publish(domain.LiveGroup(streamID), domain.NewEvent("stream_started", map[string]interface{}{
		"message": "The stream has started",
	}))

	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *RealtimeHandler) EndLiveSession(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))
	userID := c.MustGet("user_id").(domain.UserID)

	session, err := h.live.GetSession(c.Request.Context(), streamID)
	if err != nil {
		writeError(c, err)
		return
	}
	if session.StreamerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the streamer can end the stream"})
		return
	}

	session, err = h.live.EndSession(c.Request.Context(), streamID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.broker.Publish(domain.LiveGroup(streamID), domain.NewEvent("stream_ended", map[string]interface{}{
		"message": "The stream has ended",
	}))

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Notify is the notify(...) boundary for domain-mutation collaborators
// (likes, comments, follows, shares).
func (h *RealtimeHandler) Notify(c *gin.Context) {
	var req struct {
		Recipient        string `json:"recipient" binding:"required"`
		Type             string `json:"notification_type" binding:"required"`
		Title            string `json:"title" binding:"required"`
		Message          string `json:"message" binding:"required"`
		RelatedPostID    string `json:"related_post_id"`
		RelatedCommentID string `json:"related_comment_id"`
		RelatedStreamID  string `json:"related_live_stream_id"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sender := c.MustGet("user_id").(domain.UserID)
	notification, err := h.notifier.Notify(c.Request.Context(), ports.NotificationInput{
		Recipient:        domain.UserID(req.Recipient),
		Sender:           sender,
		Type:             domain.NotificationType(req.Type),
		Title:            req.Title,
		Message:          req.Message,
		RelatedPostID:    req.RelatedPostID,
		RelatedCommentID: req.RelatedCommentID,
		RelatedStreamID:  req.RelatedStreamID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if notification == nil {
		// Self-notification, suppressed.
		c.JSON(http.StatusOK, gin.H{"suppressed": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}

func (h *RealtimeHandler) ListNotifications(c *gin.Context) {
	userID := c.MustGet("user_id").(domain.UserID)
	notifications, err := h.notifications.Recent(c.Request.Context(), userID, 20)
	if err != nil {
		writeError(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread_count": unread})
}

func (h *RealtimeHandler) MarkNotificationRead(c *gin.Context) {
	userID := c.MustGet("user_id").(domain.UserID)
	ok, err := h.notifications.MarkRead(c.Request.Context(), userID, domain.NotificationID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *RealtimeHandler) MarkAllNotificationsRead(c *gin.Context) {
	userID := c.MustGet("user_id").(domain.UserID)
	count, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// BroadcastProfileUpdate pushes the caller's fresh display fields into every
// room they participate in. The caller's own connections are excluded at
// delivery time.
func (h *RealtimeHandler) BroadcastProfileUpdate(c *gin.Context) {
	userID := c.MustGet("user_id").(domain.UserID)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	roomIDs, err := h.rooms.RoomsForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	for _, roomID := range roomIDs {
		ev := domain.NewEvent("profile_update", map[string]interface{}{
			"user_id": user.ID,
			"user_data": map[string]interface{}{
				"id":              user.ID,
				"username":        user.Username,
				"first_name":      user.FirstName,
				"last_name":       user.LastName,
				"full_name":       user.FullName(),
				"profile_picture": user.ProfilePicture,
			},
		})
		ev.ExcludeUser = userID
		h.broker.Publish(domain.ChatGroup(roomID), ev)
	}

	c.JSON(http.StatusAccepted, gin.H{"rooms": len(roomIDs)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrStreamNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidStreamState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		appErr := apperrors.GetAppError(err)
		if appErr != nil {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
