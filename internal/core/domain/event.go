package domain

import "fmt"

// Event is the outbound wire envelope. Payload always contains a "type" key.
//
// Delivery filters are carried on the event and applied in the per-connection
// delivery step: the broker fans out uniformly and stays identity-agnostic.
type Event struct {
	Payload map[string]interface{}

	// ExcludeUser skips delivery to connections authenticated as this user
	// (typing indicators, profile updates).
	ExcludeUser UserID

	// OnlyUser restricts delivery to connections authenticated as this user
	// (kick frames on a room-wide publish).
	OnlyUser UserID

	// CloseAfter closes the connection after the frame is written. Only
	// meaningful together with OnlyUser.
	CloseAfter bool
}

// NewEvent builds an event payload with the mandatory type tag.
func NewEvent(eventType string, fields map[string]interface{}) Event {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = eventType
	return Event{Payload: payload}
}

func (e Event) Type() string {
	t, _ := e.Payload["type"].(string)
	return t
}

// Group name helpers. These are the only group naming schemes in the system.

func ChatGroup(room RoomID) string          { return fmt.Sprintf("chat_%s", room) }
func LiveGroup(stream StreamID) string      { return fmt.Sprintf("live_stream_%s", stream) }
func NotificationsGroup(user UserID) string { return fmt.Sprintf("notifications_%s", user) }
func ChatUpdatesGroup(user UserID) string   { return fmt.Sprintf("chat_updates_%s", user) }
