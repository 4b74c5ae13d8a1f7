package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

// CreateInvitation stores a new pending invitation.
func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO employer_invitations (company_id, invited_by, email, permissions, token_hash, temp_password_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		inv.CompanyID, inv.InvitedBy, inv.Email, inv.Permissions, inv.TokenHash, inv.TempPasswordHash, inv.ExpiresAt,
	).StructScan(inv)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitationByID retrieves an invitation by ID.
func (s *Store) GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	return getOne[models.Invitation](ctx, s.db, "invitation", "SELECT * FROM employer_invitations WHERE id = $1", id)
}

// GetInvitationByTokenHash retrieves an invitation by the digest of its token.
func (s *Store) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	return getOne[models.Invitation](ctx, s.db, "invitation",
		"SELECT * FROM employer_invitations WHERE token_hash = $1", tokenHash)
}

// GetLivePendingInvitation returns an unexpired pending invitation for email in company.
func (s *Store) GetLivePendingInvitation(ctx context.Context, companyID uuid.UUID, email string) (*models.Invitation, error) {
	return getOne[models.Invitation](ctx, s.db, "invitation", `
		SELECT * FROM employer_invitations
		WHERE company_id = $1 AND email = $2 AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1`,
		companyID, email,
	)
}

// ListInvitations returns a company's invitations, newest first.
func (s *Store) ListInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error) {
	invitations := []models.Invitation{}
	err := s.db.SelectContext(ctx, &invitations,
		"SELECT * FROM employer_invitations WHERE company_id = $1 ORDER BY created_at DESC",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// UpdateInvitationStatus moves an invitation from one status to another.
// ErrConflict means it was not in the expected status.
func (s *Store) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error {
	return mustAffect(s.db.ExecContext(ctx,
		"UPDATE employer_invitations SET status = $1 WHERE id = $2 AND status = $3",
		to, id, from,
	))
}

// ExpireInvitations marks pending invitations past their deadline as expired.
func (s *Store) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE employer_invitations SET status = 'expired' WHERE status = 'pending' AND expires_at <= $1",
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return res.RowsAffected()
}
