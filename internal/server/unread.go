package server

import (
	"sync"
)

// UnreadStore tracks per-session per-room unread counts. Counts only grow or
// reset to zero; everything for a session is dropped on disconnect.
type UnreadStore struct {
	mu     sync.Mutex
	counts map[string]map[string]int // session id -> room -> count
}

func NewUnreadStore() *UnreadStore {
	return &UnreadStore{
		counts: make(map[string]map[string]int),
	}
}

// ResetRoom zeroes the session's counter for room and returns a copy of the
// session's full counter map for delivery.
func (us *UnreadStore) ResetRoom(sessionId, room string) map[string]int {
	us.mu.Lock()
	defer us.mu.Unlock()

	if us.counts[sessionId] == nil {
		us.counts[sessionId] = make(map[string]int)
	}
	us.counts[sessionId][room] = 0

	return copyCounts(us.counts[sessionId])
}

// IncrementAllExcept bumps the room counter for every listed session other
// than excluded, returning each affected session's full counter map.
func (us *UnreadStore) IncrementAllExcept(room, excluded string, sessionIds []string) map[string]map[string]int {
	us.mu.Lock()
	defer us.mu.Unlock()

	updated := make(map[string]map[string]int)
	for _, id := range sessionIds {
		if id == excluded {
			continue
		}

		if us.counts[id] == nil {
			us.counts[id] = make(map[string]int)
		}
		us.counts[id][room]++
		updated[id] = copyCounts(us.counts[id])
	}

	return updated
}

func (us *UnreadStore) Purge(sessionId string) {
	us.mu.Lock()
	defer us.mu.Unlock()

	delete(us.counts, sessionId)
}

func copyCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for room, n := range counts {
		out[room] = n
	}
	return out
}
