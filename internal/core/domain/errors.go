package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrStreamNotFound       = errors.New("stream not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidStreamState   = errors.New("invalid stream state")
	ErrUserBanned           = errors.New("user is banned")
	ErrSelfChat             = errors.New("cannot open a chat with yourself")
)
