/*
Package model defines the shared entity shapes of the NexChat sync engine.

This file covers messages: sender markers, the monotonic delivery status
ladder, and the optional attachment descriptor.
*/
package model

// Sender markers. In a direct session the sender field holds one of the
// literal markers below; in a group session it may instead hold the
// concrete user id of the member who sent the message.
const (
	// SenderSelf marks a message authored by the session owner.
	SenderSelf = "me"

	// SenderPeer marks an inbound message from the direct counterpart.
	SenderPeer = "other"

	// SenderSystem marks a synthetic message such as "X joined the group".
	SenderSystem = "system"
)

// Status is the delivery status of a message. It only ever moves forward:
// sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank orders statuses for the monotonicity check.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// AttachmentType enumerates the supported attachment kinds.
type AttachmentType string

const (
	AttachmentImage   AttachmentType = "image"
	AttachmentVideo   AttachmentType = "video"
	AttachmentAudio   AttachmentType = "audio"
	AttachmentFile    AttachmentType = "file"
	AttachmentSticker AttachmentType = "sticker"
	AttachmentGif     AttachmentType = "gif"
)

// Attachment describes a media reference carried by a message. The engine
// never touches the referenced bytes; it only propagates the descriptor.
type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
	Name string         `json:"name,omitempty"`
	Size string         `json:"size,omitempty"`
}

// Message is one entry in a session's ordered message list.
// The list is append-only in normal operation; edit and delete are local
// in-place mutations of the owning session.
type Message struct {
	// ID is unique within the owning chat.
	ID string `json:"id"`

	// Text is the message body. May be empty when an attachment is present.
	Text string `json:"text"`

	// Sender is a sender marker or, in groups, a concrete user id.
	Sender string `json:"sender"`

	// Timestamp is the send time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	Status Status `json:"status"`

	Attachment *Attachment `json:"attachment,omitempty"`

	IsEdited bool `json:"isEdited,omitempty"`

	// SenderName is the display name used for group attribution.
	SenderName string `json:"senderName,omitempty"`

	IsSystem bool `json:"isSystem,omitempty"`
}

// AdvanceStatus moves the message's status forward to s. A status that
// would regress the ladder is ignored and the method reports false.
func (m *Message) AdvanceStatus(s Status) bool {
	if s.rank() <= m.Status.rank() {
		return false
	}
	m.Status = s
	return true
}
