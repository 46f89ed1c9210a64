package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/pg"
	"github.com/dmitrymomot/bookingkit/pkg/rbac"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

// TeamStore implements team.Store on Postgres.
type TeamStore struct {
	pool *pgxpool.Pool
}

// NewTeamStore creates a TeamStore. Panics if pool is nil.
func NewTeamStore(pool *pgxpool.Pool) *TeamStore {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &TeamStore{pool: pool}
}

const memberColumns = `id, owner_id, user_id, email, role, custom_permissions, is_active, created_at, updated_at`

func scanMember(row pgx.Row) (*team.Member, error) {
	var (
		m    team.Member
		role string
	)
	if err := row.Scan(&m.ID, &m.OwnerID, &m.UserID, &m.Email, &role, &m.CustomPermissions,
		&m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Role = rbac.Role(role)
	return &m, nil
}

const invitationColumns = `id, owner_id, email, role, custom_permissions, expires_at, accepted_at, created_at`

func scanInvitation(row pgx.Row) (*team.Invitation, error) {
	var (
		inv  team.Invitation
		role string
	)
	if err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Email, &role, &inv.CustomPermissions,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Role = rbac.Role(role)
	return &inv, nil
}

func (s *TeamStore) GetMember(ctx context.Context, id uuid.UUID) (*team.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, team.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) GetMemberByUser(ctx context.Context, ownerID, userID uuid.UUID) (*team.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE owner_id = $1 AND user_id = $2`, ownerID, userID))
	if pg.IsNotFoundError(err) {
		return nil, team.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) ListMembers(ctx context.Context, ownerID uuid.UUID) ([]*team.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*team.Member, error) {
		return scanMember(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan team members: %w", err)
	}
	return members, nil
}

const upsertMember = `
INSERT INTO team_members (` + memberColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    email = EXCLUDED.email,
    role = EXCLUDED.role,
    custom_permissions = EXCLUDED.custom_permissions,
    is_active = EXCLUDED.is_active,
    updated_at = EXCLUDED.updated_at`

func memberArgs(m *team.Member) []any {
	return []any{m.ID, m.OwnerID, m.UserID, m.Email, string(m.Role), m.CustomPermissions,
		m.Active, m.CreatedAt, m.UpdatedAt}
}

func (s *TeamStore) SaveMember(ctx context.Context, m *team.Member) error {
	_, err := s.pool.Exec(ctx, upsertMember, memberArgs(m)...)
	if pg.IsDuplicateKeyError(err) {
		return team.ErrMemberAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to save team member: %w", err)
	}
	return nil
}

func (s *TeamStore) GetInvitation(ctx context.Context, id uuid.UUID) (*team.Invitation, error) {
	inv, err := scanInvitation(s.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, team.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func (s *TeamStore) ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]*team.Invitation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	invitations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*team.Invitation, error) {
		return scanInvitation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitations: %w", err)
	}
	return invitations, nil
}

func (s *TeamStore) CreateInvitation(ctx context.Context, inv *team.Invitation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invitations (`+invitationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.OwnerID, inv.Email, string(inv.Role), inv.CustomPermissions,
		inv.ExpiresAt, inv.AcceptedAt, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *TeamStore) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return team.ErrInvitationNotFound
	}
	return nil
}

func (s *TeamStore) AcceptInvitation(ctx context.Context, inv *team.Invitation, m *team.Member) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE invitations SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`,
			inv.ID, inv.AcceptedAt)
		if err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invitations WHERE id = $1)`, inv.ID).
				Scan(&exists); err != nil {
				return fmt.Errorf("failed to check invitation: %w", err)
			}
			if !exists {
				return team.ErrInvitationNotFound
			}
			return team.ErrInvitationAccepted
		}

		_, err = tx.Exec(ctx, upsertMember, memberArgs(m)...)
		if pg.IsDuplicateKeyError(err) {
			return team.ErrMemberAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("failed to save team member: %w", err)
		}
		return nil
	})
}

var _ team.Store = (*TeamStore)(nil)
