package fanout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/randx"
)

func TestCreateGroupStaysPrivateToCreator(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	newLocalDispatcher(t, st, ben)

	group, err := d.CreateGroup(ctx, "Weekend Crew", "crew.png")
	require.NoError(t, err)

	assert.True(t, randx.IsGroupID(group.ID))
	assert.True(t, group.IsGroup)
	assert.True(t, group.HasJoined)
	assert.Equal(t, ann.ID, group.AdminID)
	require.Len(t, group.Participants, 1)
	assert.Equal(t, ann.ID, group.Participants[0].ID)

	assert.Nil(t, model.FindSession(st.RawSessions(ben.ID), group.ID))
}

func TestAddMemberCreatesCopyAndAnnounces(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	newLocalDispatcher(t, st, ben)

	group, err := d.CreateGroup(ctx, "Weekend Crew", "crew.png")
	require.NoError(t, err)

	added, err := d.AddMember(ctx, group.ID, "BEN") // handles match case-insensitively
	require.NoError(t, err)
	assert.Equal(t, ben.ID, added.ID)

	// Announcement in the owner's copy.
	mine := model.FindSession(st.RawSessions(ann.ID), group.ID)
	require.NotNil(t, mine)
	require.NotNil(t, mine.LastMessage)
	assert.Equal(t, model.SenderSystem, mine.LastMessage.Sender)
	assert.Equal(t, "Ann added Ben", mine.LastMessage.Text)
	assert.True(t, mine.HasParticipant(ben.ID))

	// The new member got a primed copy with one unread.
	theirs := model.FindSession(st.RawSessions(ben.ID), group.ID)
	require.NotNil(t, theirs)
	assert.True(t, theirs.HasJoined)
	assert.Equal(t, 1, theirs.UnreadCount)
	assert.True(t, theirs.HasParticipant(ann.ID))
	assert.True(t, theirs.HasParticipant(ben.ID))
}

func TestAddMemberRejectsUnknownAndDuplicate(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	newLocalDispatcher(t, st, ben)

	group, err := d.CreateGroup(ctx, "Weekend Crew", "")
	require.NoError(t, err)

	_, err = d.AddMember(ctx, group.ID, "nobody")
	require.Error(t, err)
	var customErr *errs.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, errs.ErrUserNotFound, customErr.Code)

	_, err = d.AddMember(ctx, group.ID, "ben")
	require.NoError(t, err)

	_, err = d.AddMember(ctx, group.ID, "ben")
	require.Error(t, err)
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, errs.ErrAlreadyMember, customErr.Code)
}

func TestGroupMessageUnreadPerMember(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	annD := newLocalDispatcher(t, st, ann)
	newLocalDispatcher(t, st, ben)

	group, err := annD.CreateGroup(ctx, "Weekend Crew", "")
	require.NoError(t, err)
	_, err = annD.AddMember(ctx, group.ID, "ben")
	require.NoError(t, err)

	benUnreadBefore := model.FindSession(st.RawSessions(ben.ID), group.ID).UnreadCount

	msg, err := annD.SendMessage(ctx, group.ID, "who's in?", nil)
	require.NoError(t, err)

	// Group messages carry the concrete sender id and display name.
	assert.Equal(t, ann.ID, msg.Sender)
	assert.Equal(t, "Ann", msg.SenderName)

	// Sender's own unread stays put.
	mine := model.FindSession(st.RawSessions(ann.ID), group.ID)
	assert.Equal(t, 0, mine.UnreadCount)

	// The other member's unread moved up by exactly one.
	theirs := model.FindSession(st.RawSessions(ben.ID), group.ID)
	assert.Equal(t, benUnreadBefore+1, theirs.UnreadCount)
	require.NotNil(t, theirs.LastMessage)
	assert.Equal(t, msg.ID, theirs.LastMessage.ID)
}

func TestJoinGroupAnnouncesWithoutUnreadBump(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	annD := newLocalDispatcher(t, st, ann)
	benD := newLocalDispatcher(t, st, ben)

	group, err := annD.CreateGroup(ctx, "Weekend Crew", "")
	require.NoError(t, err)
	_, err = annD.AddMember(ctx, group.ID, "ben")
	require.NoError(t, err)

	annUnreadBefore := model.FindSession(st.RawSessions(ann.ID), group.ID).UnreadCount

	require.NoError(t, benD.JoinGroup(ctx, group.ID))

	// Ben's copy flips to joined and carries the announcement.
	theirs := model.FindSession(st.RawSessions(ben.ID), group.ID)
	assert.True(t, theirs.HasJoined)
	require.NotNil(t, theirs.LastMessage)
	assert.Equal(t, "Ben joined the group", theirs.LastMessage.Text)

	// Ann sees the announcement but her unread counter is untouched.
	mine := model.FindSession(st.RawSessions(ann.ID), group.ID)
	require.NotNil(t, mine.LastMessage)
	assert.Equal(t, model.SenderSystem, mine.LastMessage.Sender)
	assert.Equal(t, annUnreadBefore, mine.UnreadCount)
}

func TestJoinGroupRejectsDirectSession(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	d := newLocalDispatcher(t, st, ann)
	session, err := d.StartChat(ctx, ben)
	require.NoError(t, err)

	err = d.JoinGroup(ctx, session.ID)
	require.Error(t, err)
	var customErr *errs.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, errs.ErrNotGroupSession, customErr.Code)
}
