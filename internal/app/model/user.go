/*
Package model defines the shared entity shapes of the NexChat sync engine.

These structs are the wire format: they are serialized verbatim into the
Local Store and into the shared remote document, so their JSON tags are the
compatibility contract between peers and must not change shape casually.
*/
package model

import "strings"

// User represents one identity record in the global directory.
// Users are never deleted, only mutated (profile edits, moderation).
type User struct {
	// ID is the stable unique identifier of the user.
	ID string `json:"id"`

	// Name is the display name shown in chat lists and notifications.
	Name string `json:"name"`

	// Username is the unique handle, matched case-insensitively.
	Username string `json:"username"`

	// Avatar is a reference (URL) to the user's avatar image.
	Avatar string `json:"avatar"`

	// Bio is free-form profile text.
	Bio string `json:"bio"`

	Email string `json:"email,omitempty"`

	// SystemInstruction configures the persona of the simulated assistant.
	SystemInstruction string `json:"systemInstruction,omitempty"`

	IsAdmin    bool `json:"isAdmin,omitempty"`
	IsBanned   bool `json:"isBanned,omitempty"`
	IsVerified bool `json:"isVerified,omitempty"`

	// ProfileMusic is an optional reference to a profile audio clip.
	ProfileMusic string `json:"profileMusic,omitempty"`
}

// AssistantUserID identifies the built-in simulated assistant. Messages to
// this user never fan out to other stores.
const AssistantUserID = "assistant"

// AssistantUser is the preset profile seeded into every fresh session list.
var AssistantUser = User{
	ID:         AssistantUserID,
	Name:       "Nex Assistant",
	Username:   "assistant",
	Avatar:     "https://api.dicebear.com/9.x/bottts-neutral/svg?seed=Nex",
	Bio:        "The official NexChat assistant. Always online.",
	IsVerified: true,
}

// FindUserByUsername returns the entry with the given handle, matched
// case-insensitively, or nil.
func FindUserByUsername(users []User, handle string) *User {
	for i := range users {
		if strings.EqualFold(users[i].Username, handle) {
			return &users[i]
		}
	}
	return nil
}

// DedupeUsers returns the list with at most one entry per user id,
// keeping the first occurrence of each.
func DedupeUsers(users []User) []User {
	seen := make(map[string]struct{}, len(users))
	out := make([]User, 0, len(users))

	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}

	return out
}
