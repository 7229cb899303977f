package domain

import "time"

type RoomType string

const (
	RoomTypePublic RoomType = "public"
	RoomTypeDirect RoomType = "direct"
)

// Room is the durable chat entity. Its identity is independent of any live
// connection; a group named ChatGroup(room.ID) exists only while members are
// connected.
type Room struct {
	ID            RoomID
	Name          string
	Type          RoomType
	Participants  []UserID
	CreatedAt     time.Time
	LastMessageAt time.Time
}

func (r *Room) HasParticipant(id UserID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

type Message struct {
	ID             MessageID `json:"id"`
	RoomID         RoomID    `json:"room_id"`
	SenderID       UserID    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
	IsRead         bool      `json:"is_read"`
}
