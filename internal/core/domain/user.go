package domain

import "strings"

type UserID string
type RoomID string
type StreamID string
type MessageID string
type CommentID string
type NotificationID string

// User carries the display fields the real-time layer needs. The full
// profile lives behind the persistence collaborator.
type User struct {
	ID             UserID `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Banned         bool   `json:"-"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
