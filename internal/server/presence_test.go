package server

import (
	"testing"

	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPresenceTrackerJoin(t *testing.T) {
	t.Run("empty username fails validation", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		_, _, err := pt.Join("", "sess-1")
		assert.ErrorIs(t, err, ErrEmptyUsername, "expected validation error for empty username")
	})

	t.Run("upserts and binds the session", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-1", Online: true}, nil).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		rec, delta, err := pt.Join("alice", "sess-1")
		assert.NoError(t, err, "expected join to succeed")
		assert.Equal(t, "alice", rec.Username, "expected record username to match")
		assert.True(t, rec.Online, "expected record to be online")
		assert.Equal(t, 1, delta, "expected one new online user")

		name, ok := pt.UsernameBySession("sess-1")
		assert.True(t, ok, "expected session binding")
		assert.Equal(t, "alice", name, "expected bound username to match")
	})

	t.Run("directory failure leaves no binding", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{}, assert.AnError).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		_, _, err := pt.Join("alice", "sess-1")
		assert.Error(t, err, "expected error from directory")

		_, ok := pt.UsernameBySession("sess-1")
		assert.False(t, ok, "expected no binding after failed join")
	})

	t.Run("last join for a username wins", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-1", Online: true}, nil).Once()
		db.On("UpsertPresence", "alice", "sess-2").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-2", Online: true}, nil).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		_, _, err := pt.Join("alice", "sess-1")
		assert.NoError(t, err, "expected first join to succeed")

		_, delta, err := pt.Join("alice", "sess-2")
		assert.NoError(t, err, "expected second join to succeed")
		assert.Equal(t, 0, delta, "expected a rebind, not a new online user")

		_, ok := pt.UsernameBySession("sess-1")
		assert.False(t, ok, "expected old session binding to be invalidated")

		name, ok := pt.UsernameBySession("sess-2")
		assert.True(t, ok, "expected new session binding")
		assert.Equal(t, "alice", name, "expected username bound to new session")
		assert.Equal(t, []string{"sess-2"}, pt.OnlineSessionIds(), "expected only the new session online")
	})

	t.Run("session re-identifying drops the old name", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-1", Online: true}, nil).Once()
		db.On("UpsertPresence", "bob", "sess-1").
			Return(database.PresenceRecord{Username: "bob", SessionId: "sess-1", Online: true}, nil).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		pt.Join("alice", "sess-1")
		_, delta, err := pt.Join("bob", "sess-1")
		assert.NoError(t, err, "expected rename join to succeed")
		assert.Equal(t, 0, delta, "expected rename to keep the online count steady")

		name, ok := pt.UsernameBySession("sess-1")
		assert.True(t, ok, "expected session still bound")
		assert.Equal(t, "bob", name, "expected new username bound")
	})
}

func TestPresenceTrackerLeave(t *testing.T) {
	t.Run("marks the bound record offline", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-1", Online: true}, nil).Once()
		db.On("SetOffline", "sess-1").Return(nil).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		pt.Join("alice", "sess-1")

		left, err := pt.Leave("sess-1")
		assert.NoError(t, err, "expected leave to succeed")
		assert.True(t, left, "expected a user to go offline")

		_, ok := pt.UsernameBySession("sess-1")
		assert.False(t, ok, "expected binding removed")
		assert.Empty(t, pt.OnlineSessionIds(), "expected no online sessions")
	})

	t.Run("unbound session is a no-op", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		left, err := pt.Leave("sess-unknown")
		assert.NoError(t, err, "expected no error for unbound session")
		assert.False(t, left, "expected no user to go offline")
	})

	t.Run("stale session after rebind is a no-op", func(t *testing.T) {
		db := &database.MockRelayRepository{}
		db.On("UpsertPresence", "alice", "sess-1").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-1", Online: true}, nil).Once()
		db.On("UpsertPresence", "alice", "sess-2").
			Return(database.PresenceRecord{Username: "alice", SessionId: "sess-2", Online: true}, nil).Once()
		defer db.AssertExpectations(t)

		pt := NewPresenceTracker(db, testutil.TestLogger(t))
		pt.Join("alice", "sess-1")
		pt.Join("alice", "sess-2")

		left, err := pt.Leave("sess-1")
		assert.NoError(t, err, "expected no error for stolen binding")
		assert.False(t, left, "expected the user to stay online")

		name, ok := pt.UsernameBySession("sess-2")
		assert.True(t, ok, "expected current binding untouched")
		assert.Equal(t, "alice", name, "expected alice still bound")
	})
}

func TestPresenceTrackerListOnline(t *testing.T) {
	db := &database.MockRelayRepository{}
	db.On("ListOnline").Return([]database.PresenceRecord{
		{Username: "alice", SessionId: "sess-1", Online: true},
		{Username: "bob", SessionId: "sess-2", Online: true},
	}, nil).Once()
	defer db.AssertExpectations(t)

	pt := NewPresenceTracker(db, testutil.TestLogger(t))
	records, err := pt.ListOnline()
	assert.NoError(t, err, "expected list to succeed")
	assert.Len(t, records, 2, "expected two online users")
	assert.Equal(t, "alice", records[0].Username, "expected alice first")
	assert.Equal(t, "bob", records[1].Username, "expected bob second")
}
