package server

import (
	"sync"
)

// TypingAggregator is the set of currently-typing sessions and the display
// name to show for each. Global, not room-scoped.
type TypingAggregator struct {
	mu     sync.Mutex
	typing map[string]string // session id -> display name
}

func NewTypingAggregator() *TypingAggregator {
	return &TypingAggregator{
		typing: make(map[string]string),
	}
}

// SetTyping inserts or removes the session, returning whether membership
// changed.
func (ta *TypingAggregator) SetTyping(sessionId, displayName string, isTyping bool) bool {
	ta.mu.Lock()
	defer ta.mu.Unlock()

	_, present := ta.typing[sessionId]
	if isTyping {
		ta.typing[sessionId] = displayName
		return !present
	}

	delete(ta.typing, sessionId)
	return present
}

func (ta *TypingAggregator) Snapshot() []string {
	ta.mu.Lock()
	defer ta.mu.Unlock()

	names := make([]string, 0, len(ta.typing))
	for _, name := range ta.typing {
		names = append(names, name)
	}
	return names
}

// Purge removes the session unconditionally, returning whether it was typing.
func (ta *TypingAggregator) Purge(sessionId string) bool {
	ta.mu.Lock()
	defer ta.mu.Unlock()

	_, present := ta.typing[sessionId]
	delete(ta.typing, sessionId)
	return present
}
