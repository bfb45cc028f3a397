/*
Package syncer drives the periodic reconciliation of local state against
the shared channel document.

Each tick fetches the whole document, walks a fixed sequence of adoption
and propagation steps, and pushes the document back once when anything
changed. Every step is idempotent. A tick against an unchanged document
performs no writes, so overlapping or repeated runs converge instead of
oscillating.
*/
package syncer

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nexchat/internal/app/model"
	"nexchat/internal/app/notify"
	"nexchat/internal/app/store"
	"nexchat/internal/pkg/logx"
)

// Remote is the slice of the channel client the reconciler needs.
type Remote interface {
	Fetch(ctx context.Context, channel string) (*model.GlobalDocument, error)
	Replace(ctx context.Context, channel string, doc *model.GlobalDocument) error
}

// Result is what one reconciliation pass surfaced to the caller.
type Result struct {
	// Maintenance is the adopted maintenance flag.
	Maintenance bool

	// Invitation is the single pending invitation to surface, earliest
	// first, or nil. Further queued invitations stay hidden until this
	// one is resolved.
	Invitation *model.Invitation

	// SessionsAdopted reports that the remote session list replaced the
	// local one this pass.
	SessionsAdopted bool

	// ProfilesPropagated reports that directory changes were folded into
	// local session participants this pass. Adoption is skipped on such
	// a pass and picks up the next tick.
	ProfilesPropagated bool
}

// Reconciler performs one reconciliation pass at a time.
type Reconciler struct {
	store  *store.Store
	remote Remote
	selfID string
	notify *notify.Trigger

	// view is the session snapshot from the previous pass, used to
	// detect fresh arrivals when running without a channel. primed
	// distinguishes an empty snapshot from "no pass yet".
	view   []*model.ChatSession
	primed bool

	now    func() time.Time
	logger zerolog.Logger
}

// NewReconciler returns a Reconciler for the given user. remote may be
// nil; trigger may be nil when nothing should surface alerts.
func NewReconciler(st *store.Store, remote Remote, selfID string, trigger *notify.Trigger) *Reconciler {
	return &Reconciler{
		store:  st,
		remote: remote,
		selfID: selfID,
		notify: trigger,
		now:    time.Now,
		logger: logx.Component("syncer"),
	}
}

// Reconcile runs one pass. Without a configured channel it degrades to
// the local-only walk. Fetch and decode failures skip the pass; the
// local state is never touched on a failed fetch.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	channel := r.store.LoadChannel()
	if r.remote == nil || channel == "" {
		return r.reconcileLocal(), nil
	}

	doc, err := r.remote.Fetch(ctx, channel)
	if err != nil {
		r.logger.Warn().Err(err).Str("channel", channel).Msg("Document fetch failed, skipping pass")
		return Result{Maintenance: r.store.LoadMaintenance()}, err
	}
	// A result that raced a cancellation is discarded unused.
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if doc == nil {
		// Channel configured but document gone. Run local-only; the
		// device keeps its state until the channel reappears.
		r.logger.Warn().Str("channel", channel).Msg("Channel document absent")
		return r.reconcileLocal(), nil
	}
	doc.Normalize()

	var result Result
	dirty := false

	// Maintenance flag: remote wins.
	result.Maintenance = doc.MaintenanceMode
	if doc.MaintenanceMode != r.store.LoadMaintenance() {
		if err := r.store.SaveMaintenance(doc.MaintenanceMode); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist maintenance flag")
		}
	}

	// Self profile: local wins. The document entry is corrected, never
	// the local one.
	self := r.selfProfile()
	if docSelf := doc.FindUser(r.selfID); docSelf == nil || !model.JSONEqual(*docSelf, self) {
		doc.UpsertUser(self)
		dirty = true
	}

	// Directory: remote wins, with the self entry already corrected.
	directory := model.DedupeUsers(doc.Users)
	if !model.JSONEqual(directory, r.store.LoadDirectory()) {
		if err := r.store.SaveDirectory(directory); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist directory")
		}
	}

	// Peer profiles: fold directory display fields into session
	// participants.
	local := r.store.RawSessions(r.selfID)
	if propagateProfiles(local, directory) {
		result.ProfilesPropagated = true
		if err := r.store.SaveSessions(r.selfID, local); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist propagated profiles")
		}
		doc.Chats[r.selfID] = local
		dirty = true
		r.view = local
	}

	// Session list: adopt the remote slot wholesale, with arrival
	// alerts diffed against the local copy. Skipped on a pass that just
	// rewrote participants, the next tick adopts against settled state.
	if !result.ProfilesPropagated {
		slot, ok := doc.Chats[r.selfID]
		switch {
		case !ok:
			doc.Chats[r.selfID] = local
			dirty = true
			r.view = local
		case !model.JSONEqual(slot, local):
			r.alertArrivals(local, slot)
			if err := r.store.SaveSessions(r.selfID, slot); err != nil {
				r.logger.Warn().Err(err).Msg("Failed to persist adopted sessions")
			}
			result.SessionsAdopted = true
			r.view = slot
		default:
			r.view = local
		}
	}

	// Invitations: surface the earliest, mirror the queue locally.
	queue := doc.Invites[r.selfID]
	if len(queue) > 0 {
		sort.SliceStable(queue, func(i, j int) bool { return queue[i].Timestamp < queue[j].Timestamp })
		result.Invitation = &queue[0]
	}
	if !model.JSONEqual(queue, r.store.LoadInvites(r.selfID)) {
		if err := r.store.SaveInvites(r.selfID, queue); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist invitations")
		}
	}

	if dirty {
		if err := r.remote.Replace(ctx, channel, doc); err != nil {
			r.logger.Warn().Err(err).Str("channel", channel).Msg("Document push failed")
		}
	}

	r.primed = true
	return result, nil
}

// reconcileLocal is the channel-less walk: fresh arrivals are detected by
// diffing the persisted sessions against the previous pass's snapshot.
func (r *Reconciler) reconcileLocal() Result {
	sessions := r.store.RawSessions(r.selfID)

	if r.primed {
		r.alertArrivals(r.view, sessions)
	}
	r.view = sessions
	r.primed = true

	result := Result{Maintenance: r.store.LoadMaintenance()}

	queue := r.store.LoadInvites(r.selfID)
	if len(queue) > 0 {
		sort.SliceStable(queue, func(i, j int) bool { return queue[i].Timestamp < queue[j].Timestamp })
		result.Invitation = &queue[0]
	}

	return result
}

// alertArrivals compares the incoming session list against the previous
// one and raises one alert per session whose tail is a new inbound
// message. Self- and system-authored tails never alert.
func (r *Reconciler) alertArrivals(prev, next []*model.ChatSession) {
	if r.notify == nil {
		return
	}

	for _, session := range next {
		last := session.LastMessage
		if last == nil {
			continue
		}
		if last.Sender == model.SenderSelf || last.Sender == model.SenderSystem || last.Sender == r.selfID {
			continue
		}

		known := model.FindSession(prev, session.ID)
		if known != nil && known.LastMessage != nil && known.LastMessage.ID == last.ID {
			continue
		}

		r.notify.MessageArrived(session)
	}
}

// selfProfile returns the acting user's directory entry, falling back to
// a bare record when the directory has none yet.
func (r *Reconciler) selfProfile() model.User {
	for _, u := range r.store.LoadDirectory() {
		if u.ID == r.selfID {
			return u
		}
	}
	return model.User{ID: r.selfID}
}

// propagateProfiles overwrites the display fields of every session
// participant from the directory. Only name, avatar, and the verified
// mark travel this way; everything else in the participant record stays
// as the session recorded it.
func propagateProfiles(sessions []*model.ChatSession, directory []model.User) bool {
	byID := make(map[string]model.User, len(directory))
	for _, u := range directory {
		byID[u.ID] = u
	}

	apply := func(target *model.User) bool {
		u, ok := byID[target.ID]
		if !ok {
			return false
		}
		if target.Name == u.Name && target.Avatar == u.Avatar && target.IsVerified == u.IsVerified {
			return false
		}
		target.Name = u.Name
		target.Avatar = u.Avatar
		target.IsVerified = u.IsVerified
		return true
	}

	changed := false
	for _, session := range sessions {
		if !session.IsGroup {
			if apply(&session.Participant) {
				changed = true
			}
		}
		for i := range session.Participants {
			if apply(&session.Participants[i]) {
				changed = true
			}
		}
	}
	return changed
}
