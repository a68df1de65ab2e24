package server

import (
	"sync"
)

// RoomTable maps each session to its single current room. Room names are
// opaque; an unknown room exists the moment a session joins it.
type RoomTable struct {
	mu      sync.Mutex
	current map[string]string // session id -> room
}

func NewRoomTable() *RoomTable {
	return &RoomTable{
		current: make(map[string]string),
	}
}

// SetRoom assigns room as the session's current room, returning the previous
// room if there was one.
func (rt *RoomTable) SetRoom(sessionId, room string) string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	prev := rt.current[sessionId]
	rt.current[sessionId] = room
	return prev
}

func (rt *RoomTable) Room(sessionId string) (string, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.current[sessionId]
	return room, ok
}

func (rt *RoomTable) SessionsInRoom(room string) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var ids []string
	for id, r := range rt.current {
		if r == room {
			ids = append(ids, id)
		}
	}
	return ids
}

func (rt *RoomTable) Purge(sessionId string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	delete(rt.current, sessionId)
}
