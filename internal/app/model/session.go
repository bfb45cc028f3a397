/*
Package model defines the shared entity shapes of the NexChat sync engine.

This file covers chat sessions. A session is either direct (participant is
the counterpart's cached profile) or group (participant is a synthetic
pseudo-user holding the group's name and avatar, with the real membership
in Participants). The serialized shape is shared by every peer, so both
variants live in the one struct; SessionKind exposes the variant view.
*/
package model

// SessionKind is the variant tag of a ChatSession.
type SessionKind int

const (
	KindDirect SessionKind = iota
	KindGroup
)

// ChatSession is one conversation as seen by a single owning user. Every
// participant of a conversation holds their own copy, converged by the
// reconciliation loop.
type ChatSession struct {
	// ID is stable once created and shared by every member's copy.
	ID string `json:"id"`

	// Participant is the direct counterpart's cached profile, or the
	// group's synthetic display profile. For direct sessions the cached
	// fields go stale until the next reconciliation refreshes them from
	// the directory.
	Participant User `json:"participant"`

	// Messages is the ordered message list.
	Messages []Message `json:"messages"`

	// LastMessage caches the chronologically last entry of Messages.
	// It must be refreshed by every mutation; use SetMessages or Append.
	LastMessage *Message `json:"lastMessage,omitempty"`

	// UnreadCount is never negative. It is incremented only by inbound
	// messages not authored by the owner, and reset to zero exactly when
	// the owner opens the session.
	UnreadCount int `json:"unreadCount"`

	// UpdatedAt (Unix milliseconds) orders the chat list, descending.
	UpdatedAt int64 `json:"updatedAt"`

	IsGroup   bool `json:"isGroup,omitempty"`
	HasJoined bool `json:"hasJoined,omitempty"`

	// AdminID is the group creator's user id.
	AdminID string `json:"adminId,omitempty"`

	// Participants is the explicit member set of a group, deduplicated
	// by user id.
	Participants []User `json:"participants,omitempty"`
}

// Kind returns the variant of the session.
func (s *ChatSession) Kind() SessionKind {
	if s.IsGroup {
		return KindGroup
	}
	return KindDirect
}

// Tail returns the last element of Messages, or nil when empty.
func (s *ChatSession) Tail() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// SetMessages replaces the message list and restores the tail invariant:
// LastMessage mirrors the final entry (nil when the list is empty) and
// UpdatedAt is bumped to now.
func (s *ChatSession) SetMessages(msgs []Message, now int64) {
	s.Messages = msgs
	s.UpdatedAt = now

	if len(msgs) == 0 {
		s.LastMessage = nil
		return
	}
	last := msgs[len(msgs)-1]
	s.LastMessage = &last
}

// Append adds one message to the tail and refreshes the cached pointer.
func (s *ChatSession) Append(msg Message, now int64) {
	s.SetMessages(append(s.Messages, msg), now)
}

// AddParticipant adds u to the member set unless a member with the same
// id is already present. It reports whether the set changed.
func (s *ChatSession) AddParticipant(u User) bool {
	for _, p := range s.Participants {
		if p.ID == u.ID {
			return false
		}
	}
	s.Participants = append(s.Participants, u)
	return true
}

// HasParticipant reports whether a member with the given id is present.
func (s *ChatSession) HasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// FindSession returns the session with the given id, or nil.
func FindSession(sessions []*ChatSession, id string) *ChatSession {
	for _, s := range sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindDirectWith returns the direct session whose counterpart has the
// given user id, or nil.
func FindDirectWith(sessions []*ChatSession, userID string) *ChatSession {
	for _, s := range sessions {
		if !s.IsGroup && s.Participant.ID == userID {
			return s
		}
	}
	return nil
}
