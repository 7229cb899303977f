package validation

import (
	"strings"
	"testing"
)

func TestMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "hello there", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"at limit", strings.Repeat("a", MaxMessageLength), false},
		{"over limit", strings.Repeat("a", MaxMessageLength+1), true},
		{"unicode counts runes not bytes", strings.Repeat("ы", MaxMessageLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MessageContent(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("MessageContent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommentContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "nice stream", false},
		{"empty", "", true},
		{"at limit", strings.Repeat("a", MaxCommentLength), false},
		{"over limit", strings.Repeat("a", MaxCommentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CommentContent(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("CommentContent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "alice_99", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"invalid characters", "alice!", true},
		{"too long", strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("Username() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoomName(t *testing.T) {
	tests := []struct {
		name     string
		roomName string
		wantErr  bool
	}{
		{"valid", "general-chat", false},
		{"empty", "", true},
		{"spaces rejected", "general chat", true},
		{"too long", strings.Repeat("a", MaxRoomNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RoomName(tt.roomName)
			if (err != nil) != tt.wantErr {
				t.Errorf("RoomName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
