package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSignals is an in-memory SignalStore.
type memSignals struct {
	signals map[string]map[string]int64
}

func newMemSignals() *memSignals {
	return &memSignals{signals: make(map[string]map[string]int64)}
}

func (m *memSignals) LoadTyping() map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(m.signals))
	for chat, users := range m.signals {
		inner := make(map[string]int64, len(users))
		for user, stamp := range users {
			inner[user] = stamp
		}
		out[chat] = inner
	}
	return out
}

func (m *memSignals) SaveTyping(signals map[string]map[string]int64) error {
	m.signals = signals
	return nil
}

// trackerAt pins the tracker clock to a mutable instant.
func trackerAt(store SignalStore, window time.Duration, at *time.Time) *Tracker {
	t := NewTracker(store, time.Second, window)
	t.now = func() time.Time { return *at }
	return t
}

func TestPeerTypingWithinWindow(t *testing.T) {
	store := newMemSignals()
	now := time.UnixMilli(1_000_000)
	tr := trackerAt(store, 3*time.Second, &now)

	require.NoError(t, tr.Stamp("c1", "u2"))

	assert.True(t, tr.PeerTyping("c1", "u1"))

	// The stamping user never counts as their own peer.
	assert.False(t, tr.PeerTyping("c1", "u2"))

	// Other chats stay quiet.
	assert.False(t, tr.PeerTyping("c2", "u1"))
}

func TestPeerTypingExpiresAtWindow(t *testing.T) {
	store := newMemSignals()
	now := time.UnixMilli(1_000_000)
	tr := trackerAt(store, 3*time.Second, &now)

	require.NoError(t, tr.Stamp("c1", "u2"))

	now = now.Add(2 * time.Second)
	assert.True(t, tr.PeerTyping("c1", "u1"))

	now = now.Add(1500 * time.Millisecond)
	assert.False(t, tr.PeerTyping("c1", "u1"))
}

func TestRepeatedStampsExtendFreshness(t *testing.T) {
	store := newMemSignals()
	now := time.UnixMilli(1_000_000)
	tr := trackerAt(store, 3*time.Second, &now)

	require.NoError(t, tr.Stamp("c1", "u2"))
	now = now.Add(2 * time.Second)
	require.NoError(t, tr.Stamp("c1", "u2"))
	now = now.Add(2 * time.Second)

	assert.True(t, tr.PeerTyping("c1", "u1"))
}

func TestStaleStampsRemovedFromStorage(t *testing.T) {
	store := newMemSignals()
	now := time.UnixMilli(1_000_000)
	tr := trackerAt(store, 3*time.Second, &now)

	require.NoError(t, tr.Stamp("c1", "u2"))

	// Far past the retention horizon, a write in another chat scrubs
	// the dead entry.
	now = now.Add(31 * time.Second)
	require.NoError(t, tr.Stamp("c2", "u3"))

	_, ok := store.signals["c1"]
	assert.False(t, ok)
	assert.Len(t, store.signals, 1)
}
