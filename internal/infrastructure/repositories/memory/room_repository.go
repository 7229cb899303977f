package memory

import (
	"context"
	"sync"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"github.com/google/uuid"
)

type RoomRepository struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]*domain.Room
	messages map[domain.RoomID][]*domain.Message
	users    ports.UserDirectory
}

func NewRoomRepository(users ports.UserDirectory) *RoomRepository {
	return &RoomRepository{
		rooms:    make(map[domain.RoomID]*domain.Room),
		messages: make(map[domain.RoomID][]*domain.Message),
		users:    users,
	}
}

func (r *RoomRepository) AddRoom(room *domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
}

func (r *RoomRepository) CreateMessage(ctx context.Context, roomID domain.RoomID, sender domain.UserID, content string) (*domain.Message, error) {
	senderUser, err := r.users.GetUser(ctx, sender)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		// Rooms addressed by name come into existence on first message.
		room = &domain.Room{
			ID:        roomID,
			Name:      string(roomID),
			Type:      domain.RoomTypePublic,
			CreatedAt: time.Now(),
		}
		r.rooms[roomID] = room
	}

	msg := &domain.Message{
		ID:             domain.MessageID(uuid.NewString()),
		RoomID:         roomID,
		SenderID:       sender,
		SenderUsername: senderUser.Username,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	r.messages[roomID] = append(r.messages[roomID], msg)
	room.LastMessageAt = msg.CreatedAt

	return msg, nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	copied := *room
	copied.Participants = append([]domain.UserID(nil), room.Participants...)
	return &copied, nil
}

func (r *RoomRepository) GetOrCreateDirectRoom(ctx context.Context, a, b domain.UserID) (domain.RoomID, error) {
	if a == b {
		return "", domain.ErrSelfChat
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		if room.Type == domain.RoomTypeDirect && len(room.Participants) == 2 &&
			room.HasParticipant(a) && room.HasParticipant(b) {
			return room.ID, nil
		}
	}

	room := &domain.Room{
		ID:           domain.RoomID(uuid.NewString()),
		Type:         domain.RoomTypeDirect,
		Participants: []domain.UserID{a, b},
		CreatedAt:    time.Now(),
	}
	r.rooms[room.ID] = room
	return room.ID, nil
}

func (r *RoomRepository) RoomsForUser(ctx context.Context, user domain.UserID) ([]domain.RoomID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []domain.RoomID
	for _, room := range r.rooms {
		if room.HasParticipant(user) {
			ids = append(ids, room.ID)
		}
	}
	return ids, nil
}

// MessagesIn returns persisted messages for a room, oldest first.
func (r *RoomRepository) MessagesIn(room domain.RoomID) []*domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domain.Message(nil), r.messages[room]...)
}

var _ ports.RoomRepository = (*RoomRepository)(nil)
