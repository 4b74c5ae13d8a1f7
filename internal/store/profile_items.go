package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"jobgenie/internal/models"
)

// ==================== Experience Operations ====================

// ListExperiences returns all experiences for a user.
func (s *Store) ListExperiences(ctx context.Context, userID uuid.UUID) ([]models.Experience, error) {
	experiences := []models.Experience{}
	err := s.db.SelectContext(ctx, &experiences,
		"SELECT * FROM work_experiences WHERE user_id = $1 ORDER BY is_current DESC, start_date DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	return experiences, nil
}

// GetExperience retrieves an experience by ID.
func (s *Store) GetExperience(ctx context.Context, id uuid.UUID) (*models.Experience, error) {
	return getOne[models.Experience](ctx, s.db, "experience", "SELECT * FROM work_experiences WHERE id = $1", id)
}

// CreateExperience creates a new experience.
func (s *Store) CreateExperience(ctx context.Context, userID uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error) {
	startDate, _ := time.Parse("2006-01-02", req.StartDate)

	var exp models.Experience
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO work_experiences (
			user_id, title, company_name, employment_type, location,
			start_date, end_date, is_current, description, achievements, display_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, 0))
		RETURNING *`,
		userID, req.Title, req.CompanyName, req.EmploymentType, req.Location,
		startDate, parseOptionalDate(req.EndDate), req.IsCurrent, req.Description,
		pq.Array(req.Achievements), req.DisplayOrder,
	).StructScan(&exp)
	if err != nil {
		return nil, fmt.Errorf("failed to create experience: %w", err)
	}
	return &exp, nil
}

// UpdateExperience updates an experience owned by userID.
func (s *Store) UpdateExperience(ctx context.Context, userID, id uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error) {
	startDate, _ := time.Parse("2006-01-02", req.StartDate)

	return getOne[models.Experience](ctx, s.db, "experience", `
		UPDATE work_experiences SET
			title = $1, company_name = $2, employment_type = $3, location = $4,
			start_date = $5, end_date = $6, is_current = $7, description = $8,
			achievements = $9, display_order = COALESCE($10, display_order), updated_at = NOW()
		WHERE id = $11 AND user_id = $12
		RETURNING *`,
		req.Title, req.CompanyName, req.EmploymentType, req.Location,
		startDate, parseOptionalDate(req.EndDate), req.IsCurrent, req.Description,
		pq.Array(req.Achievements), req.DisplayOrder, id, userID,
	)
}

// DeleteExperience deletes an experience owned by userID and reports whether it existed.
func (s *Store) DeleteExperience(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	return s.deleteOwned(ctx, "work_experiences", userID, id)
}

// ==================== Education Operations ====================

// ListEducations returns all education entries for a user.
func (s *Store) ListEducations(ctx context.Context, userID uuid.UUID) ([]models.Education, error) {
	educations := []models.Education{}
	err := s.db.SelectContext(ctx, &educations,
		"SELECT * FROM educations WHERE user_id = $1 ORDER BY is_current DESC, start_date DESC NULLS LAST",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	return educations, nil
}

// CreateEducation creates a new education entry.
func (s *Store) CreateEducation(ctx context.Context, userID uuid.UUID, req *models.EducationRequest) (*models.Education, error) {
	var edu models.Education
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO educations (
			user_id, institution_name, degree, field_of_study, grade,
			start_date, end_date, is_current, description, display_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, 0))
		RETURNING *`,
		userID, req.InstitutionName, req.Degree, req.FieldOfStudy, req.Grade,
		parseOptionalDate(req.StartDate), parseOptionalDate(req.EndDate), req.IsCurrent,
		req.Description, req.DisplayOrder,
	).StructScan(&edu)
	if err != nil {
		return nil, fmt.Errorf("failed to create education: %w", err)
	}
	return &edu, nil
}

// UpdateEducation updates an education entry owned by userID.
func (s *Store) UpdateEducation(ctx context.Context, userID, id uuid.UUID, req *models.EducationRequest) (*models.Education, error) {
	return getOne[models.Education](ctx, s.db, "education", `
		UPDATE educations SET
			institution_name = $1, degree = $2, field_of_study = $3, grade = $4,
			start_date = $5, end_date = $6, is_current = $7, description = $8,
			display_order = COALESCE($9, display_order), updated_at = NOW()
		WHERE id = $10 AND user_id = $11
		RETURNING *`,
		req.InstitutionName, req.Degree, req.FieldOfStudy, req.Grade,
		parseOptionalDate(req.StartDate), parseOptionalDate(req.EndDate), req.IsCurrent,
		req.Description, req.DisplayOrder, id, userID,
	)
}

// DeleteEducation deletes an education entry owned by userID.
func (s *Store) DeleteEducation(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	return s.deleteOwned(ctx, "educations", userID, id)
}

// ==================== Certificate Operations ====================

// ListCertificates returns all certificates for a user.
func (s *Store) ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error) {
	certificates := []models.Certificate{}
	err := s.db.SelectContext(ctx, &certificates,
		"SELECT * FROM certificates WHERE user_id = $1 ORDER BY issue_date DESC NULLS LAST, name",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certificates, nil
}

// CreateCertificate creates a new certificate.
func (s *Store) CreateCertificate(ctx context.Context, userID uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error) {
	var cert models.Certificate
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO certificates (
			user_id, name, issuing_organization, issue_date, expiry_date, credential_id, credential_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		userID, req.Name, req.IssuingOrganization, parseOptionalDate(req.IssueDate),
		parseOptionalDate(req.ExpiryDate), req.CredentialID, req.CredentialURL,
	).StructScan(&cert)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	return &cert, nil
}

// UpdateCertificate updates a certificate owned by userID.
func (s *Store) UpdateCertificate(ctx context.Context, userID, id uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error) {
	return getOne[models.Certificate](ctx, s.db, "certificate", `
		UPDATE certificates SET
			name = $1, issuing_organization = $2, issue_date = $3, expiry_date = $4,
			credential_id = $5, credential_url = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING *`,
		req.Name, req.IssuingOrganization, parseOptionalDate(req.IssueDate),
		parseOptionalDate(req.ExpiryDate), req.CredentialID, req.CredentialURL, id, userID,
	)
}

// DeleteCertificate deletes a certificate owned by userID.
func (s *Store) DeleteCertificate(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	return s.deleteOwned(ctx, "certificates", userID, id)
}

func (s *Store) deleteOwned(ctx context.Context, table string, userID, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ==================== Bulk Import Operations ====================

// ImportParsedResume fills empty personal fields from parsed and appends the parsed
// experiences, education and certificates, all in one transaction.
func (s *Store) ImportParsedResume(ctx context.Context, userID uuid.UUID, parsed *models.ParsedResume, importedFrom string) (*models.ImportResult, error) {
	result := &models.ImportResult{}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE candidates SET
				first_name = CASE WHEN first_name = '' THEN $1 ELSE first_name END,
				last_name = CASE WHEN last_name = '' THEN $2 ELSE last_name END,
				phone = COALESCE(phone, $3),
				city = COALESCE(city, $4),
				country = COALESCE(country, $5),
				headline = COALESCE(headline, $6),
				summary = COALESCE(summary, $7),
				total_experience_years = COALESCE(total_experience_years, $8),
				updated_at = NOW()
			WHERE user_id = $9`,
			parsed.FirstName, parsed.LastName, nilString(parsed.Phone), nilString(parsed.City),
			nilString(parsed.Country), nilString(parsed.Headline), nilString(parsed.Summary),
			nilPositive(parsed.TotalExperience), userID,
		)
		if err != nil {
			return fmt.Errorf("failed to update candidate: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.ProfileUpdated = true
		}

		for i, exp := range parsed.Experiences {
			if exp.Title == "" || exp.CompanyName == "" {
				continue
			}
			startDate := parseFlexibleDate(exp.StartDate)
			if startDate.IsZero() {
				continue
			}
			var endDate *time.Time
			if exp.EndDate != "" && !exp.IsCurrent {
				if t := parseFlexibleDate(exp.EndDate); !t.IsZero() {
					endDate = &t
				}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO work_experiences (
					user_id, title, company_name, employment_type, location,
					start_date, end_date, is_current, description, achievements, imported_from, display_order
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				userID, exp.Title, exp.CompanyName, nilString(exp.EmploymentType), nilString(exp.Location),
				startDate, endDate, exp.IsCurrent, nilString(exp.Description), pq.Array(exp.Achievements), importedFrom, i,
			); err != nil {
				return fmt.Errorf("failed to create experience: %w", err)
			}
			result.ExperiencesImported++
		}

		for i, edu := range parsed.Education {
			if edu.InstitutionName == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO educations (
					user_id, institution_name, degree, field_of_study, grade,
					start_date, end_date, imported_from, display_order
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				userID, edu.InstitutionName, nilString(edu.Degree), nilString(edu.FieldOfStudy), nilString(edu.Grade),
				flexibleDatePtr(edu.StartDate), flexibleDatePtr(edu.EndDate), importedFrom, i,
			); err != nil {
				return fmt.Errorf("failed to create education: %w", err)
			}
			result.EducationImported++
		}

		for _, cert := range parsed.Certificates {
			if cert.Name == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO certificates (
					user_id, name, issuing_organization, issue_date, expiry_date, credential_id, imported_from
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				userID, cert.Name, nilString(cert.IssuingOrganization), flexibleDatePtr(cert.IssueDate),
				flexibleDatePtr(cert.ExpiryDate), nilString(cert.CredentialID), importedFrom,
			); err != nil {
				return fmt.Errorf("failed to create certificate: %w", err)
			}
			result.CertificatesImported++
		}

		if result.EducationImported > 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE candidates SET wizard_step = GREATEST(wizard_step, 3) WHERE user_id = $1",
				userID,
			); err != nil {
				return fmt.Errorf("failed to advance wizard: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func flexibleDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := parseFlexibleDate(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nilPositive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
