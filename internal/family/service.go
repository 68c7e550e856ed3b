// Package family implements family membership and the invite lifecycle:
// creation, expiry checking, and one-time acceptance of invitations.
package family

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mlaurel/hearthledger/internal/apperrors"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/environment"
	"github.com/mlaurel/hearthledger/internal/id"
	"github.com/mlaurel/hearthledger/internal/model"
)

const (
	usersCollection    = "users"
	familiesCollection = "families"
	invitesCollection  = "invites"
)

// Service orchestrates family and invite operations. All persistence goes
// through the document store at paths computed by the resolver; the clock and
// id generator are injectable for tests.
type Service struct {
	store    docstore.Store
	resolver *environment.Resolver
	baseURL  string
	newID    id.Generator
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(gen id.Generator) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

func NewService(store docstore.Store, resolver *environment.Resolver, baseURL string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		baseURL:  strings.TrimRight(baseURL, "/"),
		newID:    id.New,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFamily creates a family with the caller as creator and sole member,
// and records the membership on the caller's user profile.
func (s *Service) CreateFamily(ctx context.Context, userID, name string) (*model.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "family name is required")
	}

	now := s.now().UTC()
	fam := model.Family{
		ID:        s.newID(),
		Name:      name,
		CreatedBy: userID,
		MemberIDs: []string{userID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		fields, err := docstore.Encode(fam)
		if err != nil {
			return err
		}
		if err := tx.Set(ctx, s.resolver.DocumentPath(familiesCollection, fam.ID), fields); err != nil {
			return err
		}
		return s.addFamilyToUser(ctx, tx, userID, fam.ID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}

	s.logger.Info("family created", "family_id", fam.ID, "created_by", userID)
	return &fam, nil
}

// Families returns every family the user is a member of.
func (s *Service) Families(ctx context.Context, userID string) ([]model.Family, error) {
	docs, err := s.store.Query(ctx, s.resolver.CollectionPath(familiesCollection), docstore.Filter{
		Field:    "member_ids",
		Contains: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}

	families := make([]model.Family, 0, len(docs))
	for i := range docs {
		var fam model.Family
		if err := docstore.Decode(&docs[i], &fam); err != nil {
			return nil, fmt.Errorf("list families: %w", err)
		}
		families = append(families, fam)
	}
	return families, nil
}

// FamilyWithMembers returns a family with its member profiles resolved. The
// caller must be a member.
func (s *Service) FamilyWithMembers(ctx context.Context, userID, familyID string) (*model.FamilyWithMembers, error) {
	fam, err := s.getFamily(ctx, s.store, familyID)
	if err != nil {
		return nil, err
	}
	if !fam.HasMember(userID) {
		return nil, apperrors.New(apperrors.CodeNotMember, "you are not a member of this family")
	}

	result := &model.FamilyWithMembers{Family: *fam}
	for _, memberID := range fam.MemberIDs {
		user, err := s.getUser(ctx, s.store, memberID)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeUserNotFound) {
				// A dangling member id should not hide the rest of the family.
				s.logger.Warn("member profile missing", "family_id", familyID, "user_id", memberID)
				continue
			}
			return nil, err
		}
		result.Members = append(result.Members, *user)
	}
	return result, nil
}

// getFamily reads a family document, distinguishing not-found from store
// failure.
func (s *Service) getFamily(ctx context.Context, tx docstore.Tx, familyID string) (*model.Family, error) {
	doc, err := tx.Get(ctx, s.resolver.DocumentPath(familiesCollection, familyID))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.New(apperrors.CodeFamilyNotFound, "family not found")
	}
	var fam model.Family
	if err := docstore.Decode(doc, &fam); err != nil {
		return nil, err
	}
	return &fam, nil
}

func (s *Service) getUser(ctx context.Context, tx docstore.Tx, userID string) (*model.User, error) {
	doc, err := tx.Get(ctx, s.resolver.DocumentPath(usersCollection, userID))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.New(apperrors.CodeUserNotFound, "user not found")
	}
	var user model.User
	if err := docstore.Decode(doc, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// addMember inserts userID into the family's member set. Adding an existing
// member is a no-op, never an error.
func (s *Service) addMember(ctx context.Context, tx docstore.Tx, fam *model.Family, userID string, now time.Time) error {
	if fam.HasMember(userID) {
		return nil
	}
	return tx.Update(ctx, s.resolver.DocumentPath(familiesCollection, fam.ID), docstore.Fields{
		"member_ids": append(fam.MemberIDs, userID),
		"updated_at": now,
	})
}

// addFamilyToUser inserts familyID into the user's family set, idempotently.
func (s *Service) addFamilyToUser(ctx context.Context, tx docstore.Tx, userID, familyID string, now time.Time) error {
	user, err := s.getUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.InFamily(familyID) {
		return nil
	}
	return tx.Update(ctx, s.resolver.DocumentPath(usersCollection, userID), docstore.Fields{
		"family_ids": append(user.FamilyIDs, familyID),
		"updated_at": now,
	})
}

// AddMember adds a user to a family's member set. Exposed for membership
// bookkeeping; invite acceptance goes through AcceptInvite.
func (s *Service) AddMember(ctx context.Context, familyID, userID string) error {
	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		fam, err := s.getFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		return s.addMember(ctx, tx, fam, userID, s.now().UTC())
	})
}

// AddFamilyToUser records a family membership on a user profile.
func (s *Service) AddFamilyToUser(ctx context.Context, userID, familyID string) error {
	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return s.addFamilyToUser(ctx, tx, userID, familyID, s.now().UTC())
	})
}

// RemoveMember removes a member from a family. Only the creator may remove
// members, and the creator can never be removed.
func (s *Service) RemoveMember(ctx context.Context, callerID, familyID, memberID string) error {
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		fam, err := s.getFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		if callerID != fam.CreatedBy {
			return apperrors.New(apperrors.CodeNotCreator, "only the family creator can remove members")
		}
		if memberID == fam.CreatedBy {
			return apperrors.New(apperrors.CodeCreatorImmovable, "the family creator cannot be removed")
		}
		return s.removeMembership(ctx, tx, fam, memberID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed", "family_id", familyID, "member_id", memberID, "removed_by", callerID)
	return nil
}

// Leave removes the caller from a family. The creator cannot leave.
func (s *Service) Leave(ctx context.Context, userID, familyID string) error {
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		fam, err := s.getFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		if !fam.HasMember(userID) {
			return apperrors.New(apperrors.CodeNotMember, "you are not a member of this family")
		}
		if userID == fam.CreatedBy {
			return apperrors.New(apperrors.CodeCreatorCannotLeave, "the family creator cannot leave the family")
		}
		return s.removeMembership(ctx, tx, fam, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member left", "family_id", familyID, "user_id", userID)
	return nil
}

// removeMembership drops the member from the family's member set and the
// family from the member's family set. Removing a non-member is a no-op.
func (s *Service) removeMembership(ctx context.Context, tx docstore.Tx, fam *model.Family, memberID string) error {
	now := s.now().UTC()

	if fam.HasMember(memberID) {
		if err := tx.Update(ctx, s.resolver.DocumentPath(familiesCollection, fam.ID), docstore.Fields{
			"member_ids": removeString(fam.MemberIDs, memberID),
			"updated_at": now,
		}); err != nil {
			return err
		}
	}

	user, err := s.getUser(ctx, tx, memberID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeUserNotFound) {
			return nil
		}
		return err
	}
	if !user.InFamily(fam.ID) {
		return nil
	}
	return tx.Update(ctx, s.resolver.DocumentPath(usersCollection, memberID), docstore.Fields{
		"family_ids": removeString(user.FamilyIDs, fam.ID),
		"updated_at": now,
	})
}

func removeString(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
