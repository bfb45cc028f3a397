package fanout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexchat/internal/app/model"
	"nexchat/internal/app/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// newLocalDispatcher registers the acting user on a store without a
// relay: every fan-out takes the direct-to-store branch.
func newLocalDispatcher(t *testing.T, st *store.Store, u model.User) *Dispatcher {
	t.Helper()

	d := New(st, nil, u.ID)
	require.NoError(t, d.RegisterSelf(context.Background(), u))
	return d
}

var (
	ann = model.User{ID: "u1", Name: "Ann", Username: "ann"}
	ben = model.User{ID: "u2", Name: "Ben", Username: "ben"}
)

func TestDirectSendDeliversInverseCopy(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)

	session, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	msg, err := d.SendMessage(ctx, session.ID, "hello ben", nil)
	require.NoError(t, err)

	// Sender's copy: authored as self, status sent, unread untouched.
	mine := model.FindSession(st.RawSessions(ann.ID), session.ID)
	require.NotNil(t, mine)
	require.NotNil(t, mine.LastMessage)
	assert.Equal(t, model.SenderSelf, mine.LastMessage.Sender)
	assert.Equal(t, model.StatusSent, mine.LastMessage.Status)
	assert.Equal(t, 0, mine.UnreadCount)

	// Recipient's copy: roles inverted, delivered, one unread, same id.
	theirs := model.FindDirectWith(st.RawSessions(ben.ID), ann.ID)
	require.NotNil(t, theirs)
	require.NotNil(t, theirs.LastMessage)
	assert.Equal(t, msg.ID, theirs.LastMessage.ID)
	assert.Equal(t, model.SenderPeer, theirs.LastMessage.Sender)
	assert.Equal(t, model.StatusDelivered, theirs.LastMessage.Status)
	assert.Equal(t, 1, theirs.UnreadCount)

	// A second message lands in the same recipient session.
	_, err = d.SendMessage(ctx, session.ID, "again", nil)
	require.NoError(t, err)

	theirs = model.FindDirectWith(st.RawSessions(ben.ID), ann.ID)
	assert.Equal(t, 2, theirs.UnreadCount)
	assert.Len(t, theirs.Messages, 2)
}

func TestAssistantChatNeverFansOut(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)

	_, err := d.SendMessage(ctx, store.WelcomeSessionID, "hi bot", nil)
	require.NoError(t, err)

	assert.Nil(t, st.RawSessions(model.AssistantUserID))
}

func TestStartChatReusesExistingSession(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)

	first, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	second, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestOpenSessionResetsUnread(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	// Ben opens the session Ann's send created for him.
	annD := newLocalDispatcher(t, st, ann)
	session, err := annD.StartChat(ctx, ben)
	require.NoError(t, err)
	_, err = annD.SendMessage(ctx, session.ID, "ping", nil)
	require.NoError(t, err)

	benD := newLocalDispatcher(t, st, ben)
	theirs := model.FindDirectWith(st.RawSessions(ben.ID), ann.ID)
	require.NotNil(t, theirs)
	require.Equal(t, 1, theirs.UnreadCount)

	opened, err := benD.OpenSession(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, opened.UnreadCount)

	persisted := model.FindSession(st.RawSessions(ben.ID), theirs.ID)
	require.NotNil(t, persisted)
	assert.Equal(t, 0, persisted.UnreadCount)
}

func TestEditMessageMarksEdited(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	session, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	msg, err := d.SendMessage(ctx, session.ID, "typo", nil)
	require.NoError(t, err)

	require.NoError(t, d.EditMessage(ctx, session.ID, msg.ID, "fixed"))

	mine := model.FindSession(st.RawSessions(ann.ID), session.ID)
	require.NotNil(t, mine.LastMessage)
	assert.Equal(t, "fixed", mine.LastMessage.Text)
	assert.True(t, mine.LastMessage.IsEdited)
}

func TestDeleteMessageRestoresTail(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	session, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	first, err := d.SendMessage(ctx, session.ID, "keep", nil)
	require.NoError(t, err)
	second, err := d.SendMessage(ctx, session.ID, "remove", nil)
	require.NoError(t, err)

	require.NoError(t, d.DeleteMessage(ctx, session.ID, second.ID))

	mine := model.FindSession(st.RawSessions(ann.ID), session.ID)
	require.Len(t, mine.Messages, 1)
	require.NotNil(t, mine.LastMessage)
	assert.Equal(t, first.ID, mine.LastMessage.ID)
}

func TestAcknowledgeReadAdvancesOwnMessages(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	session, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	_, err = d.SendMessage(ctx, session.ID, "seen yet?", nil)
	require.NoError(t, err)

	// Ben replies, making his message the tail of Ann's copy.
	sessions := st.RawSessions(ann.ID)
	model.FindSession(sessions, session.ID).
		Append(model.Message{ID: "r1", Text: "yes", Sender: model.SenderPeer, Status: model.StatusDelivered}, 999)
	require.NoError(t, st.SaveSessions(ann.ID, sessions))

	require.NoError(t, d.AcknowledgeRead(ctx, session.ID))

	after := model.FindSession(st.RawSessions(ann.ID), session.ID)
	assert.Equal(t, model.StatusRead, after.Messages[0].Status)
	// The peer's inbound message is untouched.
	assert.Equal(t, model.StatusDelivered, after.Tail().Status)
}

func TestSendMessageUnknownSession(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)

	_, err := d.SendMessage(ctx, "no-such-chat", "hello", nil)
	assert.Error(t, err)
}
