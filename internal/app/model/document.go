/*
Package model defines the shared entity shapes of the NexChat sync engine.

This file covers the global shared document and the invitation record. The
document is the single remote coordination point: whole-document in,
whole-document out, last-writer-wins on replace. All merge intelligence
lives in the reconciler and the fan-out dispatcher, never in the transport.
*/
package model

import (
	"bytes"
	"encoding/json"
)

// Invitation is a pending direct-chat request queued for a target user.
// It is consumed (cleared) when the target accepts or dismisses it.
type Invitation struct {
	FromUser  User  `json:"fromUser"`
	Timestamp int64 `json:"timestamp"`
}

// GlobalDocument is the one shared remote resource.
type GlobalDocument struct {
	// Users is the full user directory.
	Users []User `json:"users"`

	// Chats maps a user id to that user's session list.
	Chats map[string][]*ChatSession `json:"chats"`

	// Invites maps a user id to that user's pending invitation queue.
	Invites map[string][]Invitation `json:"invites"`

	// MaintenanceMode is the global maintenance flag. Remote wins over
	// local whenever a document is configured.
	MaintenanceMode bool `json:"maintenanceMode,omitempty"`
}

// NewGlobalDocument returns an empty document with allocated maps, the
// shape expected as the body of a channel create call.
func NewGlobalDocument() *GlobalDocument {
	return &GlobalDocument{
		Users:   []User{},
		Chats:   make(map[string][]*ChatSession),
		Invites: make(map[string][]Invitation),
	}
}

// Normalize allocates any nil map so lookups and writes are safe on
// documents that arrived over the wire with fields omitted.
func (d *GlobalDocument) Normalize() {
	if d.Chats == nil {
		d.Chats = make(map[string][]*ChatSession)
	}
	if d.Invites == nil {
		d.Invites = make(map[string][]Invitation)
	}
}

// FindUser returns the directory entry with the given id, or nil.
func (d *GlobalDocument) FindUser(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// FindUserByUsername returns the directory entry with the given handle,
// matched case-insensitively, or nil.
func (d *GlobalDocument) FindUserByUsername(handle string) *User {
	return FindUserByUsername(d.Users, handle)
}

// UpsertUser inserts u into the directory, or overwrites the existing
// entry with the same id. It reports whether the directory changed.
func (d *GlobalDocument) UpsertUser(u User) bool {
	for i := range d.Users {
		if d.Users[i].ID == u.ID {
			if JSONEqual(d.Users[i], u) {
				return false
			}
			d.Users[i] = u
			return true
		}
	}
	d.Users = append(d.Users, u)
	return true
}

// JSONEqual reports whether a and b have identical canonical JSON
// encodings. This mirrors the structural diffing the whole engine is
// built on: two values are "the same" iff a peer reading them off the
// wire could not tell them apart.
func JSONEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// CloneSessions deep-copies a session list through its JSON encoding, the
// same trip every list takes through the store or the remote document.
func CloneSessions(sessions []*ChatSession) []*ChatSession {
	if sessions == nil {
		return nil
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return nil
	}
	var out []*ChatSession
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Clone deep-copies the document through its JSON encoding.
func (d *GlobalDocument) Clone() *GlobalDocument {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	out := &GlobalDocument{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil
	}
	out.Normalize()
	return out
}
