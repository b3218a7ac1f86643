// internal/duel/room_store.go
package duel

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore manages live rooms in memory only.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewRoomStore returns an in-memory store for Rooms.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[uuid.UUID]*Room),
	}
}

func (s *RoomStore) AddRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

func (s *RoomStore) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

func (s *RoomStore) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// GetRoomByConn returns the room a connection is seated in, or nil. A
// connection belongs to at most one room at a time.
func (s *RoomStore) GetRoomByConn(connID uuid.UUID) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		r.Mu.Lock()
		_, seated := r.Players[connID]
		r.Mu.Unlock()
		if seated {
			return r
		}
	}
	return nil
}
