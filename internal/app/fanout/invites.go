package fanout

import (
	"context"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/errs"
)

// Invite queues a chat invitation for the user with the given handle.
// The invitation lands in the target's single-slot queue inside the
// shared document; a second invitation from the same sender while the
// first is still pending is rejected.
func (d *Dispatcher) Invite(ctx context.Context, username string) error {
	directory := d.store.LoadDirectory()
	target := model.FindUserByUsername(directory, username)
	if target == nil {
		return errs.NewError(errs.ErrUserNotFound)
	}

	self := d.Self()
	invitation := model.Invitation{FromUser: self, Timestamp: d.nowMs()}

	var pending *errs.CustomError

	if d.channel() != "" {
		d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
			for _, inv := range doc.Invites[target.ID] {
				if inv.FromUser.ID == self.ID {
					pending = errs.NewError(errs.ErrInvitePending)
					return false
				}
			}
			doc.Invites[target.ID] = append(doc.Invites[target.ID], invitation)
			return true
		})
		if pending != nil {
			return pending
		}
		return nil
	}

	queue := d.store.LoadInvites(target.ID)
	for _, inv := range queue {
		if inv.FromUser.ID == self.ID {
			return errs.NewError(errs.ErrInvitePending)
		}
	}
	return d.store.SaveInvites(target.ID, append(queue, invitation))
}

// AcceptInvite turns a pending invitation into a direct session with the
// inviter and clears the acting user's queue everywhere.
func (d *Dispatcher) AcceptInvite(ctx context.Context, invitation model.Invitation) (*model.ChatSession, error) {
	session, err := d.StartChat(ctx, invitation.FromUser)
	if err != nil {
		return nil, err
	}
	d.clearOwnInvites(ctx)
	return session, nil
}

// DismissInvites drops every pending invitation addressed to the acting
// user without creating any session.
func (d *Dispatcher) DismissInvites(ctx context.Context) {
	d.clearOwnInvites(ctx)
}

func (d *Dispatcher) clearOwnInvites(ctx context.Context) {
	if err := d.store.ClearInvites(d.selfID); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to clear local invitations")
	}

	d.withDocument(ctx, func(doc *model.GlobalDocument) bool {
		if len(doc.Invites[d.selfID]) == 0 {
			return false
		}
		delete(doc.Invites, d.selfID)
		return true
	})
}
