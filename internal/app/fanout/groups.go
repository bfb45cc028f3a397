package fanout

import (
	"context"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/randx"
)

// CreateGroup builds a new group session owned and administered by the
// acting user. The group stays invisible to everyone else until members
// are added; only the creator's local collection and document slot are
// touched.
func (d *Dispatcher) CreateGroup(ctx context.Context, name, avatar string) (*model.ChatSession, error) {
	self := d.Self()
	now := d.nowMs()

	groupID := randx.GroupID()
	session := &model.ChatSession{
		ID: groupID,
		Participant: model.User{
			ID:     groupID,
			Name:   name,
			Avatar: avatar,
			Bio:    "Group chat",
		},
		Messages:     []model.Message{},
		UnreadCount:  0,
		UpdatedAt:    now,
		IsGroup:      true,
		HasJoined:    true,
		AdminID:      self.ID,
		Participants: []model.User{self},
	}

	sessions := append([]*model.ChatSession{session}, d.ownSessions()...)
	if err := d.saveOwn(sessions); err != nil {
		return nil, err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		doc.Chats[d.selfID] = sessions
		return true
	})

	return session, nil
}

// JoinGroup marks a discoverable group as joined by the acting user and
// announces the join with a system message. Existing members see the
// announcement but their unread counters stay untouched.
func (d *Dispatcher) JoinGroup(ctx context.Context, chatID string) error {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return errs.NewError(errs.ErrSessionNotFound)
	}
	if !session.IsGroup {
		return errs.NewError(errs.ErrNotGroupSession)
	}

	self := d.Self()
	now := d.nowMs()

	session.HasJoined = true
	session.AddParticipant(self)

	announce := model.Message{
		ID:        randx.MessageID(),
		Text:      self.Name + " joined the group",
		Sender:    model.SenderSystem,
		Timestamp: now,
		Status:    model.StatusSent,
		IsSystem:  true,
	}
	session.Append(announce, now)

	if err := d.saveOwn(sessions); err != nil {
		return err
	}

	d.propagateGroup(ctx, sessions, session, false)
	return nil
}

// AddMember puts another user into a group the acting user belongs to.
// The target is resolved by handle against the directory. Every member
// with an existing copy receives the updated roster and the announcement;
// the new member gets a fresh copy through the shared document.
func (d *Dispatcher) AddMember(ctx context.Context, chatID, username string) (model.User, error) {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return model.User{}, errs.NewError(errs.ErrSessionNotFound)
	}
	if !session.IsGroup {
		return model.User{}, errs.NewError(errs.ErrNotGroupSession)
	}

	directory := d.store.LoadDirectory()
	target := model.FindUserByUsername(directory, username)
	if target == nil {
		return model.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	if session.HasParticipant(target.ID) {
		return model.User{}, errs.NewError(errs.ErrAlreadyMember)
	}

	self := d.Self()
	now := d.nowMs()

	session.AddParticipant(*target)

	announce := model.Message{
		ID:        randx.MessageID(),
		Text:      self.Name + " added " + target.Name,
		Sender:    model.SenderSystem,
		Timestamp: now,
		Status:    model.StatusSent,
		IsSystem:  true,
	}
	session.Append(announce, now)

	if err := d.saveOwn(sessions); err != nil {
		return model.User{}, err
	}

	d.propagateGroup(ctx, sessions, session, true)
	return *target, nil
}

// propagateGroup replicates the acting user's copy of a group session to
// every other member: message list, roster, and tail pointer. Unread
// counters are never bumped here, system announcements are ambient.
// When createMissing is set, members without a copy yet (freshly added
// ones) receive a new session primed with one unread.
func (d *Dispatcher) propagateGroup(ctx context.Context, sessions []*model.ChatSession, session *model.ChatSession, createMissing bool) {
	now := d.nowMs()

	install := func(theirs []*model.ChatSession, memberID string) []*model.ChatSession {
		copySession := model.FindSession(theirs, session.ID)
		if copySession != nil {
			copySession.SetMessages(append([]model.Message{}, session.Messages...), now)
			copySession.Participants = append([]model.User{}, session.Participants...)
			copySession.AdminID = session.AdminID
			return theirs
		}
		if !createMissing {
			return theirs
		}
		fresh := cloneForMember(session, now)
		return append([]*model.ChatSession{fresh}, theirs...)
	}

	if d.channel() != "" {
		d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
			doc.Chats[d.selfID] = sessions
			for _, p := range session.Participants {
				if p.ID == d.selfID {
					continue
				}
				doc.Chats[p.ID] = install(doc.Chats[p.ID], p.ID)
			}
			return true
		})
		return
	}

	for _, p := range session.Participants {
		if p.ID == d.selfID {
			continue
		}
		theirs := install(d.store.RawSessions(p.ID), p.ID)
		if err := d.store.SaveSessions(p.ID, theirs); err != nil {
			d.logger.Warn().Err(err).Str("recipient_id", p.ID).Msg("Local group propagation failed")
		}
	}
}
