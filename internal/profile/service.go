package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

// Wizard steps. The candidate row records the furthest completed step.
const (
	StepPersonal     = 1
	StepProfessional = 2
	StepHistory      = 3
	StepResume       = 4
	StepReview       = 5
)

const dateLayout = "2006-01-02"

var (
	ErrProfileNotFound = errors.New("candidate profile not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidDate     = errors.New("invalid date")
	ErrIncomplete      = errors.New("profile is incomplete")
)

// IncompleteError lists what a profile is missing before it can be submitted.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("profile is incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrIncomplete) match.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Store is the persistence the candidate wizard needs.
type Store interface {
	GetCandidateByUserID(ctx context.Context, userID uuid.UUID) (*models.Candidate, error)
	GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error)
	UpdatePersonalDetails(ctx context.Context, userID uuid.UUID, req *models.PersonalDetailsRequest) (*models.Candidate, error)
	UpdateProfessionalDetails(ctx context.Context, userID uuid.UUID, req *models.ProfessionalDetailsRequest, details models.JSONB) (*models.Candidate, error)
	AdvanceWizardStep(ctx context.Context, userID uuid.UUID, step int) error

	ListExperiences(ctx context.Context, userID uuid.UUID) ([]models.Experience, error)
	CreateExperience(ctx context.Context, userID uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error)
	UpdateExperience(ctx context.Context, userID, id uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error)
	DeleteExperience(ctx context.Context, userID, id uuid.UUID) (bool, error)

	ListEducations(ctx context.Context, userID uuid.UUID) ([]models.Education, error)
	CreateEducation(ctx context.Context, userID uuid.UUID, req *models.EducationRequest) (*models.Education, error)
	UpdateEducation(ctx context.Context, userID, id uuid.UUID, req *models.EducationRequest) (*models.Education, error)
	DeleteEducation(ctx context.Context, userID, id uuid.UUID) (bool, error)

	ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error)
	CreateCertificate(ctx context.Context, userID uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error)
	UpdateCertificate(ctx context.Context, userID, id uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error)
	DeleteCertificate(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// Approvals puts profiles into the MIS review queue.
type Approvals interface {
	SubmitCandidate(ctx context.Context, userID uuid.UUID, candidate *models.Candidate) error
	ResubmitCompany(ctx context.Context, userID uuid.UUID, company *models.Company) error
}

// Service runs the candidate profile wizard.
type Service struct {
	store     Store
	approvals Approvals
	now       func() time.Time
}

// NewService creates a candidate profile service.
func NewService(store Store, approvals Approvals) *Service {
	return &Service{store: store, approvals: approvals, now: time.Now}
}

// Candidate returns the candidate row of a user.
func (s *Service) Candidate(ctx context.Context, userID uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.store.GetCandidateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrProfileNotFound
	}
	return candidate, nil
}

// Profile returns the complete profile of a candidate user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.CandidateProfile, error) {
	candidate, err := s.Candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.GetCandidateProfile(ctx, candidate)
}

// UpdatePersonal stores wizard step 1.
func (s *Service) UpdatePersonal(ctx context.Context, userID uuid.UUID, req *models.PersonalDetailsRequest) (*models.Candidate, error) {
	if _, err := s.Candidate(ctx, userID); err != nil {
		return nil, err
	}

	clean := *req
	clean.FirstName = SanitizeText(req.FirstName)
	clean.LastName = SanitizeText(req.LastName)
	clean.City = sanitizeOptional(req.City)
	clean.Country = sanitizeOptional(req.Country)
	clean.Headline = sanitizeOptional(req.Headline)
	clean.Summary = sanitizeOptional(req.Summary)

	if clean.FirstName == "" || clean.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrIncomplete)
	}
	if dob, err := optionalDate(req.DateOfBirth); err != nil {
		return nil, err
	} else if dob != nil && !dob.Before(s.now()) {
		return nil, fmt.Errorf("%w: date of birth must be in the past", ErrInvalidDate)
	}

	return s.store.UpdatePersonalDetails(ctx, userID, &clean)
}

// UpdateProfessional stores wizard step 2 after validating the industry details.
func (s *Service) UpdateProfessional(ctx context.Context, userID uuid.UUID, req *models.ProfessionalDetailsRequest) (*models.Candidate, error) {
	if _, err := s.Candidate(ctx, userID); err != nil {
		return nil, err
	}

	details, err := ValidateDetails(req.Industry, req.Details)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateProfessionalDetails(ctx, userID, req, details)
}

// ==================== Experience ====================

// ListExperiences returns the candidate's work experiences.
func (s *Service) ListExperiences(ctx context.Context, userID uuid.UUID) ([]models.Experience, error) {
	return s.store.ListExperiences(ctx, userID)
}

// AddExperience creates a work experience.
func (s *Service) AddExperience(ctx context.Context, userID uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error) {
	clean, err := s.cleanExperience(req)
	if err != nil {
		return nil, err
	}
	exp, err := s.store.CreateExperience(ctx, userID, clean)
	if err != nil {
		return nil, err
	}
	s.advance(ctx, userID, StepHistory)
	return exp, nil
}

// UpdateExperience replaces a work experience owned by the candidate.
func (s *Service) UpdateExperience(ctx context.Context, userID, id uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error) {
	clean, err := s.cleanExperience(req)
	if err != nil {
		return nil, err
	}
	exp, err := s.store.UpdateExperience(ctx, userID, id, clean)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, ErrItemNotFound
	}
	return exp, nil
}

// DeleteExperience removes a work experience owned by the candidate.
func (s *Service) DeleteExperience(ctx context.Context, userID, id uuid.UUID) error {
	return found(s.store.DeleteExperience(ctx, userID, id))
}

func (s *Service) cleanExperience(req *models.ExperienceRequest) (*models.ExperienceRequest, error) {
	clean := *req
	clean.Title = SanitizeText(req.Title)
	clean.CompanyName = SanitizeText(req.CompanyName)
	clean.Location = sanitizeOptional(req.Location)
	clean.Description = sanitizeOptional(req.Description)
	clean.Achievements = sanitizeList(req.Achievements)
	if clean.IsCurrent {
		clean.EndDate = nil
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", ErrInvalidDate)
	}
	if start.After(s.now()) {
		return nil, fmt.Errorf("%w: start_date is in the future", ErrInvalidDate)
	}
	if err := checkRange(&req.StartDate, clean.EndDate, "end_date"); err != nil {
		return nil, err
	}
	return &clean, nil
}

// ==================== Education ====================

// ListEducations returns the candidate's education entries.
func (s *Service) ListEducations(ctx context.Context, userID uuid.UUID) ([]models.Education, error) {
	return s.store.ListEducations(ctx, userID)
}

// AddEducation creates an education entry.
func (s *Service) AddEducation(ctx context.Context, userID uuid.UUID, req *models.EducationRequest) (*models.Education, error) {
	clean, err := cleanEducation(req)
	if err != nil {
		return nil, err
	}
	edu, err := s.store.CreateEducation(ctx, userID, clean)
	if err != nil {
		return nil, err
	}
	s.advance(ctx, userID, StepHistory)
	return edu, nil
}

// UpdateEducation replaces an education entry owned by the candidate.
func (s *Service) UpdateEducation(ctx context.Context, userID, id uuid.UUID, req *models.EducationRequest) (*models.Education, error) {
	clean, err := cleanEducation(req)
	if err != nil {
		return nil, err
	}
	edu, err := s.store.UpdateEducation(ctx, userID, id, clean)
	if err != nil {
		return nil, err
	}
	if edu == nil {
		return nil, ErrItemNotFound
	}
	return edu, nil
}

// DeleteEducation removes an education entry owned by the candidate.
func (s *Service) DeleteEducation(ctx context.Context, userID, id uuid.UUID) error {
	return found(s.store.DeleteEducation(ctx, userID, id))
}

func cleanEducation(req *models.EducationRequest) (*models.EducationRequest, error) {
	clean := *req
	clean.InstitutionName = SanitizeText(req.InstitutionName)
	clean.Degree = sanitizeOptional(req.Degree)
	clean.FieldOfStudy = sanitizeOptional(req.FieldOfStudy)
	clean.Grade = sanitizeOptional(req.Grade)
	clean.Description = sanitizeOptional(req.Description)
	if clean.IsCurrent {
		clean.EndDate = nil
	}
	if err := checkRange(clean.StartDate, clean.EndDate, "end_date"); err != nil {
		return nil, err
	}
	return &clean, nil
}

// ==================== Certificates ====================

// ListCertificates returns the candidate's certificates.
func (s *Service) ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error) {
	return s.store.ListCertificates(ctx, userID)
}

// AddCertificate creates a certificate.
func (s *Service) AddCertificate(ctx context.Context, userID uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error) {
	clean, err := cleanCertificate(req)
	if err != nil {
		return nil, err
	}
	cert, err := s.store.CreateCertificate(ctx, userID, clean)
	if err != nil {
		return nil, err
	}
	s.advance(ctx, userID, StepHistory)
	return cert, nil
}

// UpdateCertificate replaces a certificate owned by the candidate.
func (s *Service) UpdateCertificate(ctx context.Context, userID, id uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error) {
	clean, err := cleanCertificate(req)
	if err != nil {
		return nil, err
	}
	cert, err := s.store.UpdateCertificate(ctx, userID, id, clean)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrItemNotFound
	}
	return cert, nil
}

// DeleteCertificate removes a certificate owned by the candidate.
func (s *Service) DeleteCertificate(ctx context.Context, userID, id uuid.UUID) error {
	return found(s.store.DeleteCertificate(ctx, userID, id))
}

func cleanCertificate(req *models.CertificateRequest) (*models.CertificateRequest, error) {
	clean := *req
	clean.Name = SanitizeText(req.Name)
	clean.IssuingOrganization = sanitizeOptional(req.IssuingOrganization)
	clean.CredentialID = sanitizeOptional(req.CredentialID)
	if err := checkRange(clean.IssueDate, clean.ExpiryDate, "expiry_date"); err != nil {
		return nil, err
	}
	return &clean, nil
}

// ==================== Submit ====================

// Submit checks that the profile is complete and puts it in the review queue.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.Candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	educations, err := s.store.ListEducations(ctx, userID)
	if err != nil {
		return nil, err
	}

	if missing := MissingForSubmit(candidate, len(educations)); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	if err := s.approvals.SubmitCandidate(ctx, userID, candidate); err != nil {
		return nil, err
	}
	s.advance(ctx, userID, StepReview)

	slog.Info("Candidate profile submitted", "candidate_id", candidate.ID, "user_id", userID)
	return s.Candidate(ctx, userID)
}

// MissingForSubmit lists the fields a candidate still has to fill in before submitting.
func MissingForSubmit(c *models.Candidate, educations int) []string {
	var missing []string
	if strings.TrimSpace(c.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(c.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if c.Phone == nil || strings.TrimSpace(*c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if c.City == nil || strings.TrimSpace(*c.City) == "" {
		missing = append(missing, "city")
	}
	if c.Industry == nil {
		missing = append(missing, "industry")
	} else if _, err := ValidateDetails(*c.Industry, c.IndustryDetails); err != nil {
		missing = append(missing, "industry_details")
	}
	if educations == 0 {
		missing = append(missing, "education")
	}
	if !c.HasResume() {
		missing = append(missing, "resume")
	}
	return missing
}

func (s *Service) advance(ctx context.Context, userID uuid.UUID, step int) {
	if err := s.store.AdvanceWizardStep(ctx, userID, step); err != nil {
		slog.Warn("Failed to advance wizard step", "user_id", userID, "step", step, "error", err)
	}
}

func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, *s)
	}
	return &t, nil
}

// checkRange rejects an end date before the start date. Either may be empty.
func checkRange(start, end *string, field string) error {
	from, err := optionalDate(start)
	if err != nil {
		return err
	}
	to, err := optionalDate(end)
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("%w: %s is before the start date", ErrInvalidDate, field)
	}
	return nil
}
