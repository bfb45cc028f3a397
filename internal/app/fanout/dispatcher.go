/*
Package fanout propagates user-initiated mutations to every affected
recipient.

A mutation (message send, group join, member add, profile edit, ...) is
always applied to the acting user's own local state first and
unconditionally. The fan-out half is best-effort: when a shared document
is configured it is fetched, rewritten for each affected recipient's slot,
and replaced wholesale; when it is not, the dispatcher writes straight
into each recipient's Local Store collection. A failed fan-out never rolls
back the local half, it only logs.

All propagation excludes the acting user: their own copy was already
written by the local half.
*/
package fanout

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nexchat/internal/app/model"
	"nexchat/internal/app/store"
	"nexchat/internal/pkg/logx"
)

// Remote is the slice of the shared-document client the dispatcher needs.
type Remote interface {
	Fetch(ctx context.Context, channel string) (*model.GlobalDocument, error)
	Replace(ctx context.Context, channel string, doc *model.GlobalDocument) error
}

// Dispatcher applies local mutations and fans them out.
type Dispatcher struct {
	store  *store.Store
	remote Remote // nil when the device can never reach a relay
	selfID string
	now    func() time.Time
	logger zerolog.Logger
}

// New returns a Dispatcher acting on behalf of the given user. remote
// may be nil; the dispatcher then always takes the local-only branch.
func New(st *store.Store, remote Remote, selfID string) *Dispatcher {
	return &Dispatcher{
		store:  st,
		remote: remote,
		selfID: selfID,
		now:    time.Now,
		logger: logx.Component("fanout").With().Str("user_id", selfID).Logger(),
	}
}

// SelfID returns the acting user's id.
func (d *Dispatcher) SelfID() string {
	return d.selfID
}

// Self returns the acting user's profile from the local directory. The
// directory always carries the profile after RegisterSelf; a bare record
// is synthesized if it somehow does not.
func (d *Dispatcher) Self() model.User {
	for _, u := range d.store.LoadDirectory() {
		if u.ID == d.selfID {
			return u
		}
	}
	return model.User{ID: d.selfID}
}

// nowMs returns the dispatcher clock in Unix milliseconds.
func (d *Dispatcher) nowMs() int64 {
	return d.now().UnixMilli()
}

// RegisterSelf installs the authenticated user's profile into the local
// directory, seeds their session list, and announces the profile to the
// shared document when one is configured and does not know them yet.
func (d *Dispatcher) RegisterSelf(ctx context.Context, profile model.User) error {
	dir := upsertUser(d.store.LoadDirectory(), profile)
	if err := d.store.SaveDirectory(dir); err != nil {
		return err
	}

	if _, err := d.store.LoadSessions(d.selfID); err != nil {
		return err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		if doc.FindUser(profile.ID) != nil {
			return false
		}
		doc.Users = append(doc.Users, profile)
		return true
	})

	return nil
}

// UpdateProfile overwrites the acting user's profile locally and patches
// their directory entry in the shared document.
func (d *Dispatcher) UpdateProfile(ctx context.Context, profile model.User) error {
	profile.ID = d.selfID

	if err := d.store.SaveDirectory(replaceUser(d.store.LoadDirectory(), profile)); err != nil {
		return err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		if entry := doc.FindUser(profile.ID); entry != nil {
			*entry = profile
			return true
		}
		// Absent entries are left for the next reconciliation pass's
		// self-profile sync to insert.
		return false
	})

	return nil
}

// SetMaintenance flips the maintenance flag locally and mirrors it into
// the shared document when one is configured.
func (d *Dispatcher) SetMaintenance(ctx context.Context, on bool) error {
	if err := d.store.SaveMaintenance(on); err != nil {
		return err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		if doc.MaintenanceMode == on {
			return false
		}
		doc.MaintenanceMode = on
		return true
	})

	return nil
}

// SetBanned applies an admin ban (or unban) to the target's directory
// entry. Peers observe it at their next reconciliation pass.
func (d *Dispatcher) SetBanned(ctx context.Context, userID string, banned bool) error {
	return d.moderate(ctx, userID, func(u *model.User) { u.IsBanned = banned })
}

// SetVerified applies or removes the admin verification mark.
func (d *Dispatcher) SetVerified(ctx context.Context, userID string, verified bool) error {
	return d.moderate(ctx, userID, func(u *model.User) { u.IsVerified = verified })
}

// moderate mutates one directory entry locally and in the document.
func (d *Dispatcher) moderate(ctx context.Context, userID string, mutate func(*model.User)) error {
	dir := d.store.LoadDirectory()
	for i := range dir {
		if dir[i].ID == userID {
			mutate(&dir[i])
		}
	}
	if err := d.store.SaveDirectory(dir); err != nil {
		return err
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		entry := doc.FindUser(userID)
		if entry == nil {
			return false
		}
		mutate(entry)
		return true
	})

	return nil
}

// ownSessions returns the acting user's current session list.
func (d *Dispatcher) ownSessions() []*model.ChatSession {
	return d.store.RawSessions(d.selfID)
}

// saveOwn persists the acting user's session list.
func (d *Dispatcher) saveOwn(sessions []*model.ChatSession) error {
	return d.store.SaveSessions(d.selfID, sessions)
}

// channel returns the configured channel code, or "" for local-only.
func (d *Dispatcher) channel() string {
	if d.remote == nil {
		return ""
	}
	return d.store.LoadChannel()
}

// withDocument runs mutate against the fetched shared document and
// replaces it when mutate reports a change. It is the best-effort half
// of every operation: any failure or an absent document is logged and
// swallowed, never propagated.
func (d *Dispatcher) withDocument(ctx context.Context, mutate func(doc *model.GlobalDocument) bool) {
	channel := d.channel()
	if channel == "" {
		return
	}

	doc, err := d.remote.Fetch(ctx, channel)
	if err != nil {
		d.logger.Warn().Err(err).Str("channel", channel).Msg("Fan-out fetch failed; local mutation stands")
		return
	}
	if doc == nil {
		d.logger.Warn().Str("channel", channel).Msg("Channel absent during fan-out; local mutation stands")
		return
	}
	doc.Normalize()

	if !mutate(doc) {
		return
	}

	if err := d.remote.Replace(ctx, channel, doc); err != nil {
		d.logger.Warn().Err(err).Str("channel", channel).Msg("Fan-out replace failed; local mutation stands")
	}
}

// upsertUser replaces the entry with u's id, or appends it.
func upsertUser(users []model.User, u model.User) []model.User {
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			return users
		}
	}
	return append(users, u)
}

// replaceUser replaces the entry with u's id when present; it never appends.
func replaceUser(users []model.User, u model.User) []model.User {
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
		}
	}
	return users
}
