package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLength  = 2000
	MaxCommentLength  = 500
	MaxRoomNameLength = 100
)

var (
	// UsernameRegex validates username format
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// RoomNameRegex validates room name format
	RoomNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Username validates a username
func Username(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// RoomName validates a chat room name
func RoomName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("room name is required")
	}
	if len(name) > MaxRoomNameLength {
		return fmt.Errorf("room name is too long (max %d characters)", MaxRoomNameLength)
	}
	if !RoomNameRegex.MatchString(name) {
		return fmt.Errorf("invalid room name format")
	}
	return nil
}

// MessageContent validates a chat message body
func MessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message is required")
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("message contains invalid characters")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return fmt.Errorf("message is too long (max %d characters)", MaxMessageLength)
	}
	return nil
}

// CommentContent validates a live stream comment body
func CommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment is required")
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("comment contains invalid characters")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fmt.Errorf("comment is too long (max %d characters)", MaxCommentLength)
	}
	return nil
}

// NotificationTitle validates a notification title
func NotificationTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return fmt.Errorf("title is too long (max 200 characters)")
	}
	return nil
}
