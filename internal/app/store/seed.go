/*
Package store implements the per-device Local Store of the sync engine.

This file seeds the two sessions every fresh installation starts with: a
direct chat with the assistant and the default public group, which exists
unjoined until the user opts in.
*/
package store

import (
	"time"

	"nexchat/internal/app/model"
)

const (
	// WelcomeSessionID is the fixed id of the seeded assistant chat.
	WelcomeSessionID = "welcome-chat"

	// DefaultGroupID is the fixed id of the seeded public group. Every
	// device seeds the same id, so copies converge once members join.
	DefaultGroupID = "group_lobby"
)

// seedDefaults appends the welcome chat and the default group to the
// list when missing. It reports whether the list changed.
func seedDefaults(sessions *[]*model.ChatSession) bool {
	changed := false
	now := time.Now().UnixMilli()

	if model.FindSession(*sessions, WelcomeSessionID) == nil {
		welcome := model.Message{
			ID:        "1",
			Text:      "Hi! I'm the Nex Assistant.",
			Sender:    model.SenderPeer,
			Timestamp: now,
			Status:    model.StatusRead,
		}
		*sessions = append(*sessions, &model.ChatSession{
			ID:          WelcomeSessionID,
			Participant: model.AssistantUser,
			Messages:    []model.Message{welcome},
			LastMessage: &welcome,
			UnreadCount: 1,
			UpdatedAt:   now,
		})
		changed = true
	}

	if model.FindSession(*sessions, DefaultGroupID) == nil {
		greeting := model.Message{
			ID:        "g1",
			Text:      "Welcome to the public chat! A good place to meet new people.",
			Sender:    model.SenderSystem,
			Timestamp: now,
			Status:    model.StatusRead,
			IsSystem:  true,
		}
		*sessions = append(*sessions, &model.ChatSession{
			ID: DefaultGroupID,
			Participant: model.User{
				ID:       DefaultGroupID,
				Name:     "Friends Nearby",
				Username: "friends_nearby",
				Avatar:   "https://api.dicebear.com/9.x/initials/svg?seed=Friends&backgroundColor=16a34a",
				Bio:      "An open group for every NexChat user.",
			},
			Messages:     []model.Message{greeting},
			LastMessage:  &greeting,
			UnreadCount:  0,
			UpdatedAt:    now,
			IsGroup:      true,
			HasJoined:    false,
			Participants: []model.User{},
		})
		changed = true
	}

	return changed
}
