package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

// GetCompanyByID retrieves a company by ID.
func (s *Store) GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return getOne[models.Company](ctx, s.db, "company", "SELECT * FROM companies WHERE id = $1", id)
}

// GetCompanyByRegistrationNumber retrieves a company by its registration number.
func (s *Store) GetCompanyByRegistrationNumber(ctx context.Context, number string) (*models.Company, error) {
	return getOne[models.Company](ctx, s.db, "company",
		"SELECT * FROM companies WHERE registration_number = $1", number)
}

// UpdateCompany updates the editable company fields. The approval state is left untouched.
func (s *Store) UpdateCompany(ctx context.Context, id uuid.UUID, req *models.CompanyRequest) (*models.Company, error) {
	var company models.Company
	err := s.db.QueryRowxContext(ctx, `
		UPDATE companies SET
			name = $1, registration_number = $2, industry = $3, website = $4, size = $5,
			address = $6, city = $7, country = $8, description = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING *`,
		req.Name, req.RegistrationNumber, req.Industry, req.Website, req.Size,
		req.Address, req.City, req.Country, req.Description, id,
	).StructScan(&company)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return &company, nil
}

// ListCompanies returns companies, optionally filtered by approval status, newest first.
func (s *Store) ListCompanies(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.Company, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM companies WHERE ($1::text IS NULL OR approval_status = $1)`,
		status,
	); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	companies := []models.Company{}
	if err := s.db.SelectContext(ctx, &companies, `
		SELECT * FROM companies
		WHERE ($1::text IS NULL OR approval_status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		status, pageSize, offset(page, pageSize),
	); err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, total, nil
}
