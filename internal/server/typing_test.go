package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingAggregatorSetTyping(t *testing.T) {
	ta := NewTypingAggregator()

	assert.True(t, ta.SetTyping("sess-1", "alice", true), "expected membership change on first set")
	assert.False(t, ta.SetTyping("sess-1", "alice", true), "expected no change on repeated set")
	assert.Equal(t, []string{"alice"}, ta.Snapshot(), "expected alice in snapshot")

	assert.True(t, ta.SetTyping("sess-1", "alice", false), "expected membership change on clear")
	assert.False(t, ta.SetTyping("sess-1", "alice", false), "expected no change clearing an absent session")
	assert.Empty(t, ta.Snapshot(), "expected empty snapshot")
}

func TestTypingAggregatorSnapshot(t *testing.T) {
	ta := NewTypingAggregator()
	ta.SetTyping("sess-1", "alice", true)
	ta.SetTyping("sess-2", "bob", true)

	assert.ElementsMatch(t, []string{"alice", "bob"}, ta.Snapshot(), "expected both display names")
}

func TestTypingAggregatorPurge(t *testing.T) {
	ta := NewTypingAggregator()
	ta.SetTyping("sess-1", "alice", true)

	assert.True(t, ta.Purge("sess-1"), "expected purge to report removal")
	assert.False(t, ta.Purge("sess-1"), "expected purge of absent session to report no change")
	assert.Empty(t, ta.Snapshot(), "expected empty snapshot after purge")
}
