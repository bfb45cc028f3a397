/*
Package presence implements the ephemeral typing signal.

A transient map keyed by chat id, then user id, holds each user's last
keystroke timestamp. Writers stamp the map on every keystroke; a poller
derives a boolean "someone else is typing" for the open chat by checking
whether any other user's stamp falls within the freshness window. Nothing
is ever acknowledged or retracted: staleness is purely a function of the
window at read time. To keep the map from growing for the life of the
installation, each poll additionally drops stamps older than several
whole windows.
*/
package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nexchat/internal/pkg/logx"
)

// expireWindows is the number of freshness windows after which a stamp is
// physically removed from storage rather than merely ignored.
const expireWindows = 10

// SignalStore is the slice of the Local Store the tracker needs.
type SignalStore interface {
	LoadTyping() map[string]map[string]int64
	SaveTyping(signals map[string]map[string]int64) error
}

// Tracker stamps and polls typing signals.
type Tracker struct {
	store    SignalStore
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewTracker returns a Tracker polling every interval with the given
// freshness window.
func NewTracker(store SignalStore, interval, window time.Duration) *Tracker {
	return &Tracker{
		store:    store,
		interval: interval,
		window:   window,
		now:      time.Now,
		logger:   logx.Component("presence"),
	}
}

// Stamp records a keystroke by userID in chatID at the current time.
// Stale entries across all chats are expired on the same write.
func (t *Tracker) Stamp(chatID, userID string) error {
	nowMs := t.now().UnixMilli()

	signals := t.store.LoadTyping()
	if signals[chatID] == nil {
		signals[chatID] = make(map[string]int64)
	}
	signals[chatID][userID] = nowMs

	t.expire(signals, nowMs)

	return t.store.SaveTyping(signals)
}

// PeerTyping reports whether any user other than selfID stamped chatID
// within the freshness window.
func (t *Tracker) PeerTyping(chatID, selfID string) bool {
	nowMs := t.now().UnixMilli()
	windowMs := t.window.Milliseconds()

	for userID, stamp := range t.store.LoadTyping()[chatID] {
		if userID == selfID {
			continue
		}
		if nowMs-stamp < windowMs {
			return true
		}
	}

	return false
}

// expire drops stamps older than expireWindows whole freshness windows,
// removing chat entries that end up empty.
func (t *Tracker) expire(signals map[string]map[string]int64, nowMs int64) {
	cutoff := nowMs - expireWindows*t.window.Milliseconds()

	for chatID, users := range signals {
		for userID, stamp := range users {
			if stamp < cutoff {
				delete(users, userID)
			}
		}
		if len(users) == 0 {
			delete(signals, chatID)
		}
	}
}

// Run polls the open chat's signal at the tracker's interval until ctx
// is cancelled. openChat reports the chat currently on screen ("" for
// none); onChange is invoked with the new value whenever the "peer is
// typing" boolean flips. Expiry of old stamps also runs on each tick.
func (t *Tracker) Run(ctx context.Context, selfID string, openChat func() string, onChange func(typing bool)) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("Presence poller started")

	last := false
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Presence poller stopped")
			return
		case <-ticker.C:
			chatID := openChat()
			if chatID == "" {
				continue
			}

			nowMs := t.now().UnixMilli()
			signals := t.store.LoadTyping()
			t.expire(signals, nowMs)
			if err := t.store.SaveTyping(signals); err != nil {
				t.logger.Warn().Err(err).Msg("Failed to persist expired typing signals")
			}

			typing := t.PeerTyping(chatID, selfID)
			if typing != last {
				last = typing
				onChange(typing)
			}
		}
	}
}
