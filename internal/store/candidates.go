package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

// GetCandidateByUserID retrieves the candidate profile of a user.
func (s *Store) GetCandidateByUserID(ctx context.Context, userID uuid.UUID) (*models.Candidate, error) {
	return getOne[models.Candidate](ctx, s.db, "candidate", "SELECT * FROM candidates WHERE user_id = $1", userID)
}

// GetCandidateByID retrieves a candidate by ID.
func (s *Store) GetCandidateByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	return getOne[models.Candidate](ctx, s.db, "candidate", "SELECT * FROM candidates WHERE id = $1", id)
}

// UpdatePersonalDetails stores wizard step 1.
func (s *Store) UpdatePersonalDetails(ctx context.Context, userID uuid.UUID, req *models.PersonalDetailsRequest) (*models.Candidate, error) {
	var c models.Candidate
	err := s.db.QueryRowxContext(ctx, `
		UPDATE candidates SET
			first_name = $1, last_name = $2, phone = $3, date_of_birth = $4,
			city = $5, country = $6, headline = $7, summary = $8,
			wizard_step = GREATEST(wizard_step, 1), updated_at = NOW()
		WHERE user_id = $9
		RETURNING *`,
		req.FirstName, req.LastName, req.Phone, parseOptionalDate(req.DateOfBirth),
		req.City, req.Country, req.Headline, req.Summary, userID,
	).StructScan(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to update personal details: %w", err)
	}
	return &c, nil
}

// UpdateProfessionalDetails stores wizard step 2. details must already be validated JSON.
func (s *Store) UpdateProfessionalDetails(ctx context.Context, userID uuid.UUID, req *models.ProfessionalDetailsRequest, details models.JSONB) (*models.Candidate, error) {
	var c models.Candidate
	err := s.db.QueryRowxContext(ctx, `
		UPDATE candidates SET
			industry = $1, industry_details = $2, total_experience_years = $3,
			current_salary = $4, expected_salary = $5, notice_period_days = $6,
			wizard_step = GREATEST(wizard_step, 2), updated_at = NOW()
		WHERE user_id = $7
		RETURNING *`,
		req.Industry, details, req.TotalExperienceYears,
		req.CurrentSalary, req.ExpectedSalary, req.NoticePeriodDays, userID,
	).StructScan(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to update professional details: %w", err)
	}
	return &c, nil
}

// AdvanceWizardStep records step as completed if it is further than the stored step.
func (s *Store) AdvanceWizardStep(ctx context.Context, userID uuid.UUID, step int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE candidates SET wizard_step = GREATEST(wizard_step, $1), updated_at = NOW() WHERE user_id = $2",
		step, userID,
	)
	return err
}

// UpdateResume records the stored resume file and returns the previous key, if any.
func (s *Store) UpdateResume(ctx context.Context, userID uuid.UUID, key, fileName, contentType string, at time.Time) (*string, error) {
	var previous *string
	err := s.db.GetContext(ctx, &previous, `
		WITH old AS (SELECT resume_key FROM candidates WHERE user_id = $5 FOR UPDATE)
		UPDATE candidates SET
			resume_key = $1, resume_file_name = $2, resume_content_type = $3, resume_uploaded_at = $4,
			wizard_step = GREATEST(wizard_step, 4), updated_at = NOW()
		WHERE user_id = $5
		RETURNING (SELECT resume_key FROM old)`,
		key, fileName, contentType, at, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}
	return previous, nil
}

// ListCandidates returns submitted candidates, optionally filtered by approval status.
func (s *Store) ListCandidates(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) ([]models.CandidateListItem, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM candidates
		WHERE submitted_at IS NOT NULL AND ($1::text IS NULL OR approval_status = $1)`,
		status,
	); err != nil {
		return nil, 0, fmt.Errorf("failed to count candidates: %w", err)
	}

	items := []models.CandidateListItem{}
	if err := s.db.SelectContext(ctx, &items, `
		SELECT c.*, u.email
		FROM candidates c
		JOIN users u ON u.id = c.user_id
		WHERE c.submitted_at IS NOT NULL AND ($1::text IS NULL OR c.approval_status = $1)
		ORDER BY c.submitted_at DESC
		LIMIT $2 OFFSET $3`,
		status, pageSize, offset(page, pageSize),
	); err != nil {
		return nil, 0, fmt.Errorf("failed to list candidates: %w", err)
	}
	return items, total, nil
}

// SearchApprovedCandidates returns approved candidates matching the filters.
func (s *Store) SearchApprovedCandidates(ctx context.Context, f models.CandidateSearch) ([]models.Candidate, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM candidates
		WHERE approval_status = 'approved'
			AND ($1::text IS NULL OR industry = $1)
			AND ($2::text IS NULL OR city ILIKE $2)`,
		f.Industry, f.City,
	); err != nil {
		return nil, 0, fmt.Errorf("failed to count candidates: %w", err)
	}

	candidates := []models.Candidate{}
	if err := s.db.SelectContext(ctx, &candidates, `
		SELECT * FROM candidates
		WHERE approval_status = 'approved'
			AND ($1::text IS NULL OR industry = $1)
			AND ($2::text IS NULL OR city ILIKE $2)
		ORDER BY reviewed_at DESC NULLS LAST
		LIMIT $3 OFFSET $4`,
		f.Industry, f.City, f.PageSize, offset(f.Page, f.PageSize),
	); err != nil {
		return nil, 0, fmt.Errorf("failed to search candidates: %w", err)
	}
	return candidates, total, nil
}

// GetCandidateProfile loads a candidate with its account email and profile items.
func (s *Store) GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error) {
	user, err := s.GetUserByID(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", candidate.UserID)
	}

	experiences, err := s.ListExperiences(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}
	educations, err := s.ListEducations(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}
	certificates, err := s.ListCertificates(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}

	return &models.CandidateProfile{
		Email:        user.Email,
		Candidate:    candidate,
		Experiences:  experiences,
		Educations:   educations,
		Certificates: certificates,
	}, nil
}
