package family

import (
	"context"
	"fmt"

	"github.com/mlaurel/hearthledger/internal/apperrors"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/model"
)

// CreateInvite creates a pending invitation for a family. Only a current
// member may invite. The invite carries the family name so it can be shown
// without a second lookup, and expires a fixed seven days after creation.
func (s *Service) CreateInvite(ctx context.Context, userID, familyID string) (*model.Invite, error) {
	fam, err := s.getFamily(ctx, s.store, familyID)
	if err != nil {
		return nil, err
	}
	if !fam.HasMember(userID) {
		return nil, apperrors.New(apperrors.CodeNotMember, "only a family member can create invitations")
	}

	now := s.now().UTC()
	invite := model.Invite{
		ID:         s.newID(),
		FamilyID:   fam.ID,
		FamilyName: fam.Name,
		InvitedBy:  userID,
		Status:     model.InviteStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(model.InviteTTL),
	}

	fields, err := docstore.Encode(invite)
	if err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	if err := s.store.Set(ctx, s.resolver.DocumentPath(invitesCollection, invite.ID), fields); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	s.logger.Info("invite created", "invite_id", invite.ID, "family_id", fam.ID, "invited_by", userID)
	return &invite, nil
}

// InviteLink builds the shareable URL for an invite.
func (s *Service) InviteLink(inviteID string) string {
	return s.baseURL + "/invite/" + inviteID
}

// Invite returns an invitation by id. Used by the public invite landing page
// to show the family name before the visitor signs in.
func (s *Service) Invite(ctx context.Context, inviteID string) (*model.Invite, error) {
	return s.getInvite(ctx, s.store, inviteID)
}

// InviteAcceptable reports whether the invite could be accepted right now,
// judged against the same clock AcceptInvite uses.
func (s *Service) InviteAcceptable(invite *model.Invite) bool {
	return invite.Acceptable(s.now().UTC())
}

func (s *Service) getInvite(ctx context.Context, tx docstore.Tx, inviteID string) (*model.Invite, error) {
	doc, err := tx.Get(ctx, s.resolver.DocumentPath(invitesCollection, inviteID))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.New(apperrors.CodeInviteNotFound, "invitation not found")
	}
	var invite model.Invite
	if err := docstore.Decode(doc, &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

// AcceptInvite accepts a pending invitation on behalf of userID and returns
// the joined family.
//
// The three mutations — add the member to the family, add the family to the
// member's profile, flip the invite to accepted — run inside one store
// transaction, in that fixed order. The pending-status check is re-read
// inside the transaction, so a second acceptance of the same invite always
// fails the precondition rather than leaving a partial membership.
//
// Expiry is judged here at read time: a pending invite past its deadline is
// reported as expired, distinct from one that was already used. No "expired"
// status is ever written.
func (s *Service) AcceptInvite(ctx context.Context, userID, inviteID string) (*model.Family, error) {
	var joined *model.Family

	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		invite, err := s.getInvite(ctx, tx, inviteID)
		if err != nil {
			return err
		}
		if invite.Status != model.InviteStatusPending {
			return apperrors.New(apperrors.CodeInviteAlreadyAccepted, "this invitation has already been used")
		}
		now := s.now().UTC()
		if invite.Expired(now) {
			return apperrors.New(apperrors.CodeInviteExpired, "this invitation has expired")
		}

		fam, err := s.getFamily(ctx, tx, invite.FamilyID)
		if err != nil {
			return err
		}
		if fam.HasMember(userID) {
			return apperrors.New(apperrors.CodeAlreadyMember, "you are already a member of this family")
		}

		if err := s.addMember(ctx, tx, fam, userID, now); err != nil {
			return err
		}
		if err := s.addFamilyToUser(ctx, tx, userID, fam.ID, now); err != nil {
			return err
		}
		if err := tx.Update(ctx, s.resolver.DocumentPath(invitesCollection, inviteID), docstore.Fields{
			"status": model.InviteStatusAccepted,
		}); err != nil {
			return err
		}

		fam.MemberIDs = append(fam.MemberIDs, userID)
		fam.UpdatedAt = now
		joined = fam
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite accepted", "invite_id", inviteID, "family_id", joined.ID, "user_id", userID)
	return joined, nil
}
