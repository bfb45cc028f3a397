package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexchat/internal/app/model"
	"nexchat/internal/app/notify"
	"nexchat/internal/app/store"
)

// fakeRemote keeps the shared document in memory and hands out deep
// copies, like the real transport does.
type fakeRemote struct {
	mu       sync.Mutex
	doc      *model.GlobalDocument
	fetchErr error
	replaces int
}

func (f *fakeRemote) Fetch(ctx context.Context, channel string) (*model.GlobalDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.doc == nil {
		return nil, nil
	}
	return f.doc.Clone(), nil
}

func (f *fakeRemote) Replace(ctx context.Context, channel string, doc *model.GlobalDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.doc = doc.Clone()
	f.replaces++
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (c *captureSink) Notify(title, body, icon string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
	c.bodies = append(c.bodies, body)
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.titles)
}

func openTestStore(t *testing.T, selfID, channel string) *store.Store {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.SaveDirectory([]model.User{{ID: selfID, Name: "Ann", Username: "ann"}}))
	if channel != "" {
		require.NoError(t, st.SaveChannel(channel))
	}

	return st
}

func inboundSession(id, peerID, peerName, msgID, text string) *model.ChatSession {
	s := &model.ChatSession{
		ID:          id,
		Participant: model.User{ID: peerID, Name: peerName},
		Messages: []model.Message{{
			ID:     msgID,
			Text:   text,
			Sender: model.SenderPeer,
			Status: model.StatusDelivered,
		}},
		UnreadCount: 1,
	}
	s.SetMessages(s.Messages, 100)
	return s
}

func TestReconcileAdoptsRemoteSessions(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.Chats["u1"] = []*model.ChatSession{
		inboundSession("c1", "u2", "Ben", "m1", "hello there"),
	}
	remote := &fakeRemote{doc: doc}

	sink := &captureSink{}
	r := NewReconciler(st, remote, "u1", notify.New(sink, nil))

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, result.SessionsAdopted)
	adopted := st.RawSessions("u1")
	require.Len(t, adopted, 1)
	assert.Equal(t, "c1", adopted[0].ID)

	require.Equal(t, 1, sink.count())
	assert.Equal(t, "Ben", sink.titles[0])
	assert.Equal(t, "hello there", sink.bodies[0])
}

func TestReconcileIsIdempotent(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.Chats["u1"] = []*model.ChatSession{
		inboundSession("c1", "u2", "Ben", "m1", "hello"),
	}
	remote := &fakeRemote{doc: doc}

	sink := &captureSink{}
	r := NewReconciler(st, remote, "u1", notify.New(sink, nil))

	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	firstReplaces := remote.replaces
	firstAlerts := sink.count()

	for i := 0; i < 3; i++ {
		result, err := r.Reconcile(context.Background())
		require.NoError(t, err)
		assert.False(t, result.SessionsAdopted)
		assert.False(t, result.ProfilesPropagated)
	}

	assert.Equal(t, firstReplaces, remote.replaces)
	assert.Equal(t, firstAlerts, sink.count())
}

func TestReconcileSelfProfileWinsOverRemote(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Stale Ann", Username: "ann"})
	remote := &fakeRemote{doc: doc}

	r := NewReconciler(st, remote, "u1", nil)
	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	pushed := remote.doc.FindUser("u1")
	require.NotNil(t, pushed)
	assert.Equal(t, "Ann", pushed.Name)
}

func TestReconcileRegistersAbsentSelf(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	remote := &fakeRemote{doc: model.NewGlobalDocument()}
	r := NewReconciler(st, remote, "u1", nil)

	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, remote.doc.FindUser("u1"))
	// The local slot was also pushed up.
	_, ok := remote.doc.Chats["u1"]
	assert.True(t, ok)
}

func TestReconcileAdoptsMaintenanceFlag(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.MaintenanceMode = true
	remote := &fakeRemote{doc: doc}

	r := NewReconciler(st, remote, "u1", nil)
	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Maintenance)
	assert.True(t, st.LoadMaintenance())
}

func TestReconcileAdoptsDirectory(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.UpsertUser(model.User{ID: "u2", Name: "Ben", Username: "ben"})
	remote := &fakeRemote{doc: doc}

	r := NewReconciler(st, remote, "u1", nil)
	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	dir := st.LoadDirectory()
	require.Len(t, dir, 2)
	assert.NotNil(t, model.FindUserByUsername(dir, "ben"))
}

func TestReconcileProfilePropagationDefersAdoption(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	// Local session still carries Ben's old display name.
	local := []*model.ChatSession{{
		ID:          "c1",
		Participant: model.User{ID: "u2", Name: "Old Ben"},
		Messages:    []model.Message{},
	}}
	require.NoError(t, st.SaveSessions("u1", local))

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.UpsertUser(model.User{ID: "u2", Name: "New Ben", Username: "ben", Avatar: "a.png"})
	doc.Chats["u1"] = model.CloneSessions(local)
	remote := &fakeRemote{doc: doc}

	r := NewReconciler(st, remote, "u1", nil)
	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, result.ProfilesPropagated)
	assert.False(t, result.SessionsAdopted)

	updated := st.RawSessions("u1")
	require.Len(t, updated, 1)
	assert.Equal(t, "New Ben", updated[0].Participant.Name)
	assert.Equal(t, "a.png", updated[0].Participant.Avatar)

	// The rewritten list was pushed, so the next pass settles clean.
	result, err = r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ProfilesPropagated)
	assert.False(t, result.SessionsAdopted)
}

func TestReconcileNoAlertForOwnOrSystemTail(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	own := &model.ChatSession{ID: "c1", Participant: model.User{ID: "u2", Name: "Ben"}}
	own.SetMessages([]model.Message{{ID: "m1", Sender: model.SenderSelf, Text: "mine"}}, 100)

	system := &model.ChatSession{ID: "g1", IsGroup: true, Participant: model.User{ID: "g1", Name: "Lobby"}}
	system.SetMessages([]model.Message{{ID: "m2", Sender: model.SenderSystem, Text: "X joined", IsSystem: true}}, 100)

	group := &model.ChatSession{ID: "g2", IsGroup: true, Participant: model.User{ID: "g2", Name: "Crew"}}
	group.SetMessages([]model.Message{{ID: "m3", Sender: "u1", SenderName: "Ann", Text: "group self"}}, 100)

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.Chats["u1"] = []*model.ChatSession{own, system, group}
	remote := &fakeRemote{doc: doc}

	sink := &captureSink{}
	r := NewReconciler(st, remote, "u1", notify.New(sink, nil))

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.True(t, result.SessionsAdopted)
	assert.Equal(t, 0, sink.count())
}

func TestReconcileSurfacesEarliestInvitation(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.UpsertUser(model.User{ID: "u1", Name: "Ann", Username: "ann"})
	doc.Invites["u1"] = []model.Invitation{
		{FromUser: model.User{ID: "u3", Name: "Cara"}, Timestamp: 200},
		{FromUser: model.User{ID: "u2", Name: "Ben"}, Timestamp: 100},
	}
	remote := &fakeRemote{doc: doc}

	r := NewReconciler(st, remote, "u1", nil)
	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Invitation)
	assert.Equal(t, "u2", result.Invitation.FromUser.ID)

	// Both invitations are mirrored locally while only one is surfaced.
	assert.Len(t, st.LoadInvites("u1"), 2)
}

func TestReconcileFetchFailureLeavesLocalUntouched(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	local := []*model.ChatSession{{ID: "c1", Participant: model.User{ID: "u2"}}}
	require.NoError(t, st.SaveSessions("u1", local))
	require.NoError(t, st.SaveMaintenance(true))

	remote := &fakeRemote{fetchErr: errors.New("relay unreachable")}
	r := NewReconciler(st, remote, "u1", nil)

	result, err := r.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, result.Maintenance)
	assert.Len(t, st.RawSessions("u1"), 1)
}

func TestReconcileCancelledContextDiscardsResult(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	doc := model.NewGlobalDocument()
	doc.Chats["u1"] = []*model.ChatSession{
		inboundSession("c1", "u2", "Ben", "m1", "hello"),
	}
	remote := &fakeRemote{doc: doc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReconciler(st, remote, "u1", nil)
	_, err := r.Reconcile(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing was adopted from the in-flight fetch.
	assert.Nil(t, st.RawSessions("u1"))
	assert.Equal(t, 0, remote.replaces)
}

func TestReconcileLocalOnlyDetectsArrivals(t *testing.T) {
	st := openTestStore(t, "u1", "")

	sink := &captureSink{}
	r := NewReconciler(st, nil, "u1", notify.New(sink, nil))

	// First pass primes the snapshot.
	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, sink.count())

	// A peer process delivers into this user's store between passes.
	require.NoError(t, st.SaveSessions("u1", []*model.ChatSession{
		inboundSession("c1", "u2", "Ben", "m1", "psst"),
	}))

	_, err = r.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sink.count())
	assert.Equal(t, "Ben", sink.titles[0])

	// Unchanged state stays quiet.
	_, err = r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sink.count())
}
