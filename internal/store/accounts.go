package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"jobgenie/internal/models"
)

// CreateCandidateAccount creates the user and an empty candidate profile in one transaction.
func (s *Store) CreateCandidateAccount(ctx context.Context, user *models.User, candidate *models.Candidate) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		candidate.UserID = user.ID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO candidates (user_id, first_name, last_name, wizard_step, approval_status)
			VALUES ($1, $2, $3, 1, 'pending')
			RETURNING *`,
			candidate.UserID, candidate.FirstName, candidate.LastName,
		).StructScan(candidate)
		if err != nil {
			return fmt.Errorf("failed to create candidate: %w", err)
		}
		return nil
	})
}

// CreateEmployerAccount creates the company, the user and the super-admin
// employer row in one transaction.
func (s *Store) CreateEmployerAccount(ctx context.Context, user *models.User, company *models.Company, employer *models.Employer) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO companies (name, registration_number, industry, website, size, address, city, country, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *`,
			company.Name, company.RegistrationNumber, company.Industry, company.Website, company.Size,
			company.Address, company.City, company.Country, company.Description,
		).StructScan(company)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create company: %w", err)
		}

		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		employer.UserID = user.ID
		employer.CompanyID = company.ID
		return insertEmployer(ctx, tx, employer)
	})
}

// AcceptInvitation creates the invited employer account and closes the invitation
// in one transaction. ErrConflict means the invitation was no longer pending.
func (s *Store) AcceptInvitation(ctx context.Context, invitation *models.Invitation, user *models.User, employer *models.Employer) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := mustAffect(tx.ExecContext(ctx, `
			UPDATE employer_invitations SET status = 'accepted', accepted_at = NOW()
			WHERE id = $1 AND status = 'pending'`,
			invitation.ID,
		)); err != nil {
			return err
		}

		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		employer.UserID = user.ID
		employer.CompanyID = invitation.CompanyID
		return insertEmployer(ctx, tx, employer)
	})
}

func insertEmployer(ctx context.Context, tx *sqlx.Tx, employer *models.Employer) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO employers (user_id, company_id, first_name, last_name, phone, designation, is_super_admin, permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		employer.UserID, employer.CompanyID, employer.FirstName, employer.LastName,
		employer.Phone, employer.Designation, employer.IsSuperAdmin, employer.Permissions,
	).StructScan(employer)
	if err != nil {
		return fmt.Errorf("failed to create employer: %w", err)
	}
	return nil
}
