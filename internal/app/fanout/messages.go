/*
Package fanout propagates user-initiated mutations to every affected
recipient.

This file covers the message paths: sending, editing, deleting, read
acknowledgement, and opening a session. All of them funnel through
applyMessages, which installs the authoritative message list into the
acting user's own session and then fans the mutation out per the
direct/group rules.
*/
package fanout

import (
	"context"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/randx"
)

// SendMessage appends a new outbound message to the given chat and fans
// it out. In a direct chat the message is authored as the local-user
// marker; in a group it carries the acting user's concrete id so every
// member's copy attributes it correctly.
func (d *Dispatcher) SendMessage(ctx context.Context, chatID, text string, attachment *model.Attachment) (model.Message, error) {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return model.Message{}, errs.NewError(errs.ErrSessionNotFound)
	}

	self := d.Self()

	sender := model.SenderSelf
	if session.IsGroup {
		sender = self.ID
	}

	msg := model.Message{
		ID:         randx.MessageID(),
		Text:       text,
		Sender:     sender,
		SenderName: self.Name,
		Timestamp:  d.nowMs(),
		Status:     model.StatusSent,
		Attachment: attachment,
	}

	msgs := append(append([]model.Message{}, session.Messages...), msg)
	if err := d.applyMessages(ctx, sessions, session, msgs); err != nil {
		return model.Message{}, err
	}

	return msg, nil
}

// UpdateMessages replaces the chat's message list wholesale and fans the
// change out. It is the raw form behind edit, delete, and read receipts.
func (d *Dispatcher) UpdateMessages(ctx context.Context, chatID string, msgs []model.Message) error {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return errs.NewError(errs.ErrSessionNotFound)
	}
	return d.applyMessages(ctx, sessions, session, msgs)
}

// EditMessage rewrites the text of one owned message in place and marks
// it edited.
func (d *Dispatcher) EditMessage(ctx context.Context, chatID, messageID, text string) error {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	msgs := append([]model.Message{}, session.Messages...)
	found := false
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Text = text
			msgs[i].IsEdited = true
			found = true
		}
	}
	if !found {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	return d.applyMessages(ctx, sessions, session, msgs)
}

// DeleteMessage removes one message from the owning session's list.
func (d *Dispatcher) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	msgs := make([]model.Message, 0, len(session.Messages))
	for _, m := range session.Messages {
		if m.ID != messageID {
			msgs = append(msgs, m)
		}
	}

	return d.applyMessages(ctx, sessions, session, msgs)
}

// AcknowledgeRead advances every self-authored message to read once the
// counterpart has demonstrably seen the conversation (their message is
// the tail). The advance is monotonic and a no-op when nothing changes.
func (d *Dispatcher) AcknowledgeRead(ctx context.Context, chatID string) error {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	tail := session.Tail()
	if tail == nil || tail.Sender == model.SenderSelf {
		return nil
	}

	msgs := append([]model.Message{}, session.Messages...)
	changed := false
	for i := range msgs {
		if msgs[i].Sender == model.SenderSelf && msgs[i].AdvanceStatus(model.StatusRead) {
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return d.applyMessages(ctx, sessions, session, msgs)
}

// OpenSession marks the chat as opened by its owner: the unread counter
// resets to zero, the list is persisted, and the owner's slot in the
// shared document is refreshed.
func (d *Dispatcher) OpenSession(ctx context.Context, chatID string) (*model.ChatSession, error) {
	sessions := d.ownSessions()
	session := model.FindSession(sessions, chatID)
	if session == nil {
		return nil, errs.NewError(errs.ErrSessionNotFound)
	}

	session.UnreadCount = 0
	if err := d.saveOwn(sessions); err != nil {
		return nil, err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		doc.Chats[d.selfID] = sessions
		return true
	})

	return session, nil
}

// StartChat opens (or creates) a direct session with the given user.
// Creation is local plus the acting user's own document slot; the
// counterpart only learns about the session once a message flows.
func (d *Dispatcher) StartChat(ctx context.Context, user model.User) (*model.ChatSession, error) {
	sessions := d.ownSessions()

	if existing := model.FindDirectWith(sessions, user.ID); existing != nil {
		return existing, nil
	}

	session := &model.ChatSession{
		ID:          randx.SessionID(),
		Participant: user,
		Messages:    []model.Message{},
		UnreadCount: 0,
		UpdatedAt:   d.nowMs(),
	}
	sessions = append([]*model.ChatSession{session}, sessions...)

	if err := d.saveOwn(sessions); err != nil {
		return nil, err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		doc.Chats[d.selfID] = sessions
		return true
	})

	return session, nil
}

// applyMessages installs msgs as the session's authoritative list,
// persists the acting user's collection, and fans out. Local state is
// written first and unconditionally; fan-out failures only log.
func (d *Dispatcher) applyMessages(ctx context.Context, sessions []*model.ChatSession, session *model.ChatSession, msgs []model.Message) error {
	session.SetMessages(msgs, d.nowMs())

	if err := d.saveOwn(sessions); err != nil {
		return err
	}

	if session.IsGroup {
		d.fanGroup(ctx, sessions, session)
	} else {
		d.fanDirect(ctx, sessions, session)
	}

	return nil
}

// fanDirect delivers the inverse of a freshly sent direct message to the
// counterpart. Only a self-authored tail triggers delivery, and never
// for the simulated assistant. The recipient's copy swaps the roles:
// sender becomes the peer marker and the status jumps to delivered.
func (d *Dispatcher) fanDirect(ctx context.Context, sessions []*model.ChatSession, session *model.ChatSession) {
	tail := session.Tail()
	if tail == nil || tail.Sender != model.SenderSelf {
		return
	}

	recipient := session.Participant
	if recipient.ID == model.AssistantUserID {
		return
	}

	incoming := *tail
	incoming.Sender = model.SenderPeer
	incoming.Status = model.StatusDelivered

	if d.channel() != "" {
		d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
			doc.Chats[d.selfID] = sessions
			doc.Chats[recipient.ID] = d.deliverDirect(doc.Chats[recipient.ID], incoming)
			return true
		})
		return
	}

	recipientSessions := d.deliverDirect(d.store.RawSessions(recipient.ID), incoming)
	if err := d.store.SaveSessions(recipient.ID, recipientSessions); err != nil {
		d.logger.Warn().Err(err).Str("recipient_id", recipient.ID).Msg("Local direct delivery failed")
	}
}

// deliverDirect appends the inbound copy to the recipient's existing
// session with the sender, or creates a new session holding it as sole
// content with one unread.
func (d *Dispatcher) deliverDirect(recipientSessions []*model.ChatSession, incoming model.Message) []*model.ChatSession {
	self := d.Self()
	now := d.nowMs()

	if existing := model.FindDirectWith(recipientSessions, self.ID); existing != nil {
		existing.Append(incoming, now)
		existing.UnreadCount++
		return recipientSessions
	}

	fresh := &model.ChatSession{
		ID:          randx.SessionID(),
		Participant: self,
		Messages:    []model.Message{incoming},
		LastMessage: &incoming,
		UnreadCount: 1,
		UpdatedAt:   now,
	}
	return append([]*model.ChatSession{fresh}, recipientSessions...)
}

// fanGroup pushes the authoritative message list into every other
// member's copy of the group session, incrementing unread unless that
// member authored the tail. Members without a copy get a brand-new one
// through the document path; the local path only updates existing
// copies.
func (d *Dispatcher) fanGroup(ctx context.Context, sessions []*model.ChatSession, session *model.ChatSession) {
	tail := session.Tail()
	now := d.nowMs()

	if d.channel() != "" {
		d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
			doc.Chats[d.selfID] = sessions

			for _, p := range session.Participants {
				if p.ID == d.selfID {
					continue
				}

				theirs := doc.Chats[p.ID]
				copySession := model.FindSession(theirs, session.ID)
				if copySession != nil {
					copySession.SetMessages(append([]model.Message{}, session.Messages...), now)
					if tail != nil && tail.Sender != p.ID {
						copySession.UnreadCount++
					}
				} else {
					fresh := cloneForMember(session, now)
					theirs = append([]*model.ChatSession{fresh}, theirs...)
				}
				doc.Chats[p.ID] = theirs
			}
			return true
		})
		return
	}

	for _, p := range session.Participants {
		if p.ID == d.selfID {
			continue
		}

		theirs := d.store.RawSessions(p.ID)
		copySession := model.FindSession(theirs, session.ID)
		if copySession == nil {
			continue
		}
		copySession.SetMessages(append([]model.Message{}, session.Messages...), now)
		if tail != nil && tail.Sender != p.ID {
			copySession.UnreadCount++
		}
		if err := d.store.SaveSessions(p.ID, theirs); err != nil {
			d.logger.Warn().Err(err).Str("recipient_id", p.ID).Msg("Local group delivery failed")
		}
	}
}

// cloneForMember builds a new member's first copy of a group session:
// already joined, one unread.
func cloneForMember(session *model.ChatSession, now int64) *model.ChatSession {
	fresh := model.CloneSessions([]*model.ChatSession{session})[0]
	fresh.UnreadCount = 1
	fresh.HasJoined = true
	fresh.UpdatedAt = now
	return fresh
}
