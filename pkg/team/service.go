package team

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/clock"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/validator"
)

// Service manages an owner's team: invitations, membership, roles and
// authorization of non-plugin features.
type Service struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger

	maxMembers      int
	unlimitedPlugin uuid.UUID
	statuses        StatusResolver
	invitationTTL   time.Duration
	hooks           []RemovalHook

	// mu serializes capacity checks with the writes they guard.
	mu sync.Mutex
}

// NewService creates a Service. Panics if store is nil.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("team: Store is required")
	}

	s := &Service{
		store:         store,
		clock:         clock.New(),
		logger:        logger.Discard(),
		invitationTTL: DefaultInvitationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invite creates a pending invitation for email to join owner's team on
// behalf of actorID. A nil customPermissions keeps the role defaults; a
// non-nil set replaces them. The actor must outrank role and hold every
// custom permission it grants.
func (s *Service) Invite(ctx context.Context, ownerID, actorID uuid.UUID, email string, role rbac.Role, customPermissions []string) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.Apply(
		validator.RequiredUUID("owner_id", ownerID),
		validator.ValidEmail("email", email),
		validator.InList("role", role, rbac.AssignableRoles()),
		validator.Subset("custom_permissions", customPermissions, rbac.AvailablePermissions),
	); err != nil {
		return nil, err
	}
	if err := s.checkGrant(ctx, ownerID, actorID, role, customPermissions); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	members, err := s.store.ListMembers(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	invitations, err := s.store.ListInvitations(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	used := 0
	for _, m := range members {
		if !m.Active {
			continue
		}
		if m.Email == email {
			return nil, ErrMemberAlreadyExists
		}
		used++
	}
	for _, inv := range invitations {
		if !inv.Pending(now) {
			continue
		}
		if inv.Email == email {
			return nil, ErrInvitationExists
		}
		used++
	}
	if err := s.checkCapacity(ctx, ownerID, used); err != nil {
		return nil, err
	}

	inv := &Invitation{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Email:             email,
		Role:              role,
		CustomPermissions: slices.Clone(customPermissions),
		ExpiresAt:         now.Add(s.invitationTTL),
		CreatedAt:         now,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team invitation created",
		logger.OwnerID(ownerID), logger.Role(role.String()), slog.String("invitation_id", inv.ID.String()))
	return inv, nil
}

// AcceptInvitation turns a pending invitation into an active member for
// userID. A previously removed member of the same owner is reactivated with
// the invitation's role.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID, userID uuid.UUID) (*Member, error) {
	if err := validator.Apply(validator.RequiredUUID("user_id", userID)); err != nil {
		return nil, err
	}

	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	switch {
	case inv.AcceptedAt != nil:
		return nil, ErrInvitationAccepted
	case !now.Before(inv.ExpiresAt):
		return nil, ErrInvitationExpired
	case userID == inv.OwnerID:
		return nil, ErrOwnerNotMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetMemberByUser(ctx, inv.OwnerID, userID)
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		return nil, err
	}
	if existing != nil && existing.Active {
		return nil, ErrMemberAlreadyExists
	}

	members, err := s.store.ListMembers(ctx, inv.OwnerID)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, m := range members {
		if m.Active {
			active++
		}
	}
	if err := s.checkCapacity(ctx, inv.OwnerID, active); err != nil {
		return nil, err
	}

	m := &Member{
		ID:        uuid.New(),
		OwnerID:   inv.OwnerID,
		UserID:    userID,
		CreatedAt: now,
	}
	if existing != nil {
		m = existing
	}
	m.Email = inv.Email
	m.Role = inv.Role
	m.CustomPermissions = slices.Clone(inv.CustomPermissions)
	m.Active = true
	m.UpdatedAt = now

	inv.AcceptedAt = &now
	if err := s.store.AcceptInvitation(ctx, inv, m); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team invitation accepted",
		logger.OwnerID(m.OwnerID), logger.MemberID(m.ID), logger.UserID(userID), logger.Role(m.Role.String()))
	return m, nil
}

// RevokeInvitation deletes an invitation.
func (s *Service) RevokeInvitation(ctx context.Context, invitationID uuid.UUID) error {
	return s.store.DeleteInvitation(ctx, invitationID)
}

// ListInvitations returns owner's invitations that can still be accepted.
func (s *Service) ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]*Invitation, error) {
	all, err := s.store.ListInvitations(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return slices.DeleteFunc(all, func(inv *Invitation) bool { return !inv.Pending(now) }), nil
}

// Remove deactivates a member and runs the removal hooks. The member is
// deactivated even when a hook fails; hook failures are joined with
// ErrRemovalHookFailed.
func (s *Service) Remove(ctx context.Context, memberID uuid.UUID) error {
	m, err := s.active(ctx, memberID)
	if err != nil {
		return err
	}

	m.Active = false
	m.UpdatedAt = s.now()
	if err := s.store.SaveMember(ctx, m); err != nil {
		return err
	}

	var errs []error
	for _, hook := range s.hooks {
		if err := hook(ctx, m.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(append([]error{ErrRemovalHookFailed}, errs...)...)
		s.logger.ErrorContext(ctx, "team member removal hook failed",
			logger.OwnerID(m.OwnerID), logger.MemberID(m.ID), logger.Error(err))
		return err
	}

	s.logger.InfoContext(ctx, "team member removed", logger.OwnerID(m.OwnerID), logger.MemberID(m.ID))
	return nil
}

// UpdateRole changes a member's role. The actor must outrank both the
// member's current role and the new one.
func (s *Service) UpdateRole(ctx context.Context, actorRole rbac.Role, memberID uuid.UUID, role rbac.Role) (*Member, error) {
	if err := validator.Apply(validator.InList("role", role, rbac.AssignableRoles())); err != nil {
		return nil, err
	}

	m, err := s.active(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(actorRole, m.Role) || !rbac.CanManage(actorRole, role) {
		return nil, rbac.ErrCannotManageRole
	}
	if m.Role == role {
		return m, nil
	}

	m.Role = role
	m.UpdatedAt = s.now()
	if err := s.store.SaveMember(ctx, m); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team member role updated",
		logger.OwnerID(m.OwnerID), logger.MemberID(m.ID), logger.Role(role.String()))
	return m, nil
}

// SetCustomPermissions replaces a member's custom permission set on behalf
// of actorID. Passing nil restores the role defaults.
func (s *Service) SetCustomPermissions(ctx context.Context, actorID, memberID uuid.UUID, permissions []string) (*Member, error) {
	if err := validator.Apply(
		validator.Subset("custom_permissions", permissions, rbac.AvailablePermissions),
	); err != nil {
		return nil, err
	}

	m, err := s.active(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.checkGrant(ctx, m.OwnerID, actorID, m.Role, permissions); err != nil {
		return nil, err
	}

	m.CustomPermissions = slices.Clone(permissions)
	m.UpdatedAt = s.now()
	if err := s.store.SaveMember(ctx, m); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team member permissions updated",
		logger.OwnerID(m.OwnerID), logger.MemberID(m.ID), slog.Int("custom", len(permissions)))
	return m, nil
}

// Get returns a member record, active or not.
func (s *Service) Get(ctx context.Context, memberID uuid.UUID) (*Member, error) {
	return s.store.GetMember(ctx, memberID)
}

// GetByUser returns the member record of user under owner, active or not.
func (s *Service) GetByUser(ctx context.Context, ownerID, userID uuid.UUID) (*Member, error) {
	return s.store.GetMemberByUser(ctx, ownerID, userID)
}

// List returns owner's active members.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*Member, error) {
	all, err := s.store.ListMembers(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(m *Member) bool { return !m.Active }), nil
}

// Role returns the role user acts with under owner. The owner account itself
// holds rbac.RoleOwner.
func (s *Service) Role(ctx context.Context, ownerID, userID uuid.UUID) (rbac.Role, error) {
	role, _, err := s.actor(ctx, ownerID, userID)
	return role, err
}

// Permissions returns the effective permission set of user under owner.
func (s *Service) Permissions(ctx context.Context, ownerID, userID uuid.UUID) ([]string, error) {
	_, perms, err := s.actor(ctx, ownerID, userID)
	return perms, err
}

// Authorize checks that user may perform permission under owner. Plugin
// access is not decided here; see package access.
func (s *Service) Authorize(ctx context.Context, ownerID, userID uuid.UUID, permission string) error {
	perms, err := s.Permissions(ctx, ownerID, userID)
	if err != nil {
		return err
	}
	return rbac.Can(perms, permission)
}

// actor returns the role and effective permissions user acts with under owner.
func (s *Service) actor(ctx context.Context, ownerID, userID uuid.UUID) (rbac.Role, []string, error) {
	if userID == ownerID {
		return rbac.RoleOwner, rbac.RoleOwner.DefaultPermissions(), nil
	}
	m, err := s.activeByUser(ctx, ownerID, userID)
	if err != nil {
		return "", nil, err
	}
	return m.Role, m.Permissions(), nil
}

// checkGrant fails unless actorID outranks role and holds every permission
// in custom.
func (s *Service) checkGrant(ctx context.Context, ownerID, actorID uuid.UUID, role rbac.Role, custom []string) error {
	actorRole, held, err := s.actor(ctx, ownerID, actorID)
	if err != nil {
		return err
	}
	if !rbac.CanManage(actorRole, role) {
		return rbac.ErrCannotManageRole
	}
	return rbac.CanGrant(held, custom)
}

func (s *Service) active(ctx context.Context, memberID uuid.UUID) (*Member, error) {
	m, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrMemberInactive
	}
	return m, nil
}

func (s *Service) activeByUser(ctx context.Context, ownerID, userID uuid.UUID) (*Member, error) {
	m, err := s.store.GetMemberByUser(ctx, ownerID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrMemberInactive
	}
	return m, nil
}

// checkCapacity fails when used seats already fill the cap. The unlimited
// plugin takes precedence over the numeric cap.
func (s *Service) checkCapacity(ctx context.Context, ownerID uuid.UUID, used int) error {
	if s.maxMembers <= 0 || s.unlimited(ctx, ownerID) {
		return nil
	}
	if used >= s.maxMembers {
		return ErrTeamLimitReached
	}
	return nil
}

func (s *Service) unlimited(ctx context.Context, ownerID uuid.UUID) bool {
	if s.statuses == nil || s.unlimitedPlugin == uuid.Nil {
		return false
	}
	return s.statuses.EffectiveStatus(ctx, ownerID, s.unlimitedPlugin).Usable()
}

func (s *Service) now() time.Time {
	return clock.NowUTC(s.clock)
}
