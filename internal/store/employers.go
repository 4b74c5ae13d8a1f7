package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobgenie/internal/models"
)

// GetEmployerByUserID retrieves the employer row of a user.
func (s *Store) GetEmployerByUserID(ctx context.Context, userID uuid.UUID) (*models.Employer, error) {
	return getOne[models.Employer](ctx, s.db, "employer", "SELECT * FROM employers WHERE user_id = $1", userID)
}

// GetEmployerByID retrieves an employer by ID.
func (s *Store) GetEmployerByID(ctx context.Context, id uuid.UUID) (*models.Employer, error) {
	return getOne[models.Employer](ctx, s.db, "employer", "SELECT * FROM employers WHERE id = $1", id)
}

// ListCompanyMembers returns every employer of a company with account details.
func (s *Store) ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.EmployerMember, error) {
	members := []models.EmployerMember{}
	err := s.db.SelectContext(ctx, &members, `
		SELECT e.*, u.email, u.status
		FROM employers e
		JOIN users u ON u.id = e.user_id
		WHERE e.company_id = $1
		ORDER BY e.is_super_admin DESC, e.created_at`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company members: %w", err)
	}
	return members, nil
}

// ListSuperAdminEmails returns the addresses of a company's active super-admins.
func (s *Store) ListSuperAdminEmails(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	emails := []string{}
	err := s.db.SelectContext(ctx, &emails, `
		SELECT u.email
		FROM employers e
		JOIN users u ON u.id = e.user_id
		WHERE e.company_id = $1 AND e.is_super_admin AND u.status = 'active'`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list super-admin emails: %w", err)
	}
	return emails, nil
}

// RemoveEmployer deletes the employer row, suspends the account and revokes
// its refresh tokens in one transaction.
func (s *Store) RemoveEmployer(ctx context.Context, employer *models.Employer) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := mustAffect(tx.ExecContext(ctx,
			"DELETE FROM employers WHERE id = $1 AND NOT is_super_admin", employer.ID,
		)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET status = 'suspended', updated_at = NOW() WHERE id = $1", employer.UserID,
		); err != nil {
			return fmt.Errorf("failed to suspend user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL", employer.UserID,
		); err != nil {
			return fmt.Errorf("failed to revoke tokens: %w", err)
		}
		return nil
	})
}
