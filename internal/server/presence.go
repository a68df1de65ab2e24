package server

import (
	"errors"
	"log"
	"sync"

	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/types"
)

var ErrEmptyUsername = errors.New("username cannot be empty")

// PresenceTracker is the in-process authority for which sessions are online.
// Durable state lives in the user directory; the in-memory binding maps are
// what every hot path (name resolution, unread recipients) reads. The mutex
// is never held across a directory call.
type PresenceTracker struct {
	db        database.RelayRepository
	log       *log.Logger
	mu        sync.Mutex
	byUser    map[string]string // username -> session id
	bySession map[string]string // session id -> username
}

func NewPresenceTracker(db database.RelayRepository, logger *log.Logger) *PresenceTracker {
	return &PresenceTracker{
		db:        db,
		log:       logger,
		byUser:    make(map[string]string),
		bySession: make(map[string]string),
	}
}

// Join binds sessionId to username, upserting the directory record. The last
// join for a username wins: any previous session binding is dropped, even if
// that session is still connected. The returned delta is the change in the
// number of distinct online users (0 on a rebind, 1 on a fresh join).
func (pt *PresenceTracker) Join(username, sessionId string) (types.PresenceRecord, int, error) {
	if username == "" {
		return types.PresenceRecord{}, 0, ErrEmptyUsername
	}

	rec, err := pt.db.UpsertPresence(username, sessionId)
	if err != nil {
		return types.PresenceRecord{}, 0, err
	}

	pt.mu.Lock()
	before := len(pt.byUser)
	if prev, ok := pt.byUser[username]; ok && prev != sessionId {
		delete(pt.bySession, prev)
	}
	if oldName, ok := pt.bySession[sessionId]; ok && oldName != username {
		// session re-identified under a new name
		if pt.byUser[oldName] == sessionId {
			delete(pt.byUser, oldName)
		}
	}
	pt.byUser[username] = sessionId
	pt.bySession[sessionId] = username
	delta := len(pt.byUser) - before
	pt.mu.Unlock()

	return presenceRecord(rec), delta, nil
}

// Leave marks the record bound to sessionId offline. A session that never
// joined, or whose binding was stolen by a later join, is a no-op. Returns
// whether a user actually went offline.
func (pt *PresenceTracker) Leave(sessionId string) (bool, error) {
	pt.mu.Lock()
	username, ok := pt.bySession[sessionId]
	if ok {
		delete(pt.bySession, sessionId)
		if pt.byUser[username] == sessionId {
			delete(pt.byUser, username)
		}
	}
	pt.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := pt.db.SetOffline(sessionId); err != nil {
		return true, err
	}

	return true, nil
}

func (pt *PresenceTracker) ListOnline() ([]types.PresenceRecord, error) {
	dbRecs, err := pt.db.ListOnline()
	if err != nil {
		return nil, err
	}

	records := make([]types.PresenceRecord, len(dbRecs))
	for i, rec := range dbRecs {
		records[i] = presenceRecord(rec)
	}

	return records, nil
}

func (pt *PresenceTracker) UsernameBySession(sessionId string) (string, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	username, ok := pt.bySession[sessionId]
	return username, ok
}

// OnlineSessionIds returns the session IDs with a live presence binding.
func (pt *PresenceTracker) OnlineSessionIds() []string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	ids := make([]string, 0, len(pt.bySession))
	for id := range pt.bySession {
		ids = append(ids, id)
	}
	return ids
}

func presenceRecord(rec database.PresenceRecord) types.PresenceRecord {
	return types.PresenceRecord{
		Username:  rec.Username,
		SessionId: rec.SessionId,
		Online:    rec.Online,
		UpdatedAt: rec.UpdatedAt,
	}
}
