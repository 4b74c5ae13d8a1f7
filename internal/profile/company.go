package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"jobgenie/internal/models"
	"jobgenie/internal/store"
)

var (
	ErrEmployerNotFound   = errors.New("employer not found")
	ErrForbidden          = errors.New("missing permission")
	ErrCompanyNotApproved = errors.New("company is not approved")
	ErrCompanyExists      = errors.New("a company with this registration number already exists")
	ErrCandidateNotFound  = errors.New("candidate not found")
)

// CompanyStore is the persistence the employer side needs.
type CompanyStore interface {
	GetEmployerByUserID(ctx context.Context, userID uuid.UUID) (*models.Employer, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, id uuid.UUID, req *models.CompanyRequest) (*models.Company, error)
	GetCandidateByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error)
	SearchApprovedCandidates(ctx context.Context, f models.CandidateSearch) ([]models.Candidate, int, error)
}

// EmployerView is the signed-in employer with its company.
type EmployerView struct {
	Employer *models.Employer `json:"employer"`
	Company  *models.Company  `json:"company"`
}

// CompanyService serves the company profile and candidate browsing to employers.
type CompanyService struct {
	store     CompanyStore
	approvals Approvals
}

// NewCompanyService creates a company service.
func NewCompanyService(store CompanyStore, approvals Approvals) *CompanyService {
	return &CompanyService{store: store, approvals: approvals}
}

// Me returns the employer row and company of a user.
func (s *CompanyService) Me(ctx context.Context, userID uuid.UUID) (*EmployerView, error) {
	employer, err := s.store.GetEmployerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if employer == nil {
		return nil, ErrEmployerNotFound
	}
	company, err := s.store.GetCompanyByID(ctx, employer.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company %s of employer %s not found", employer.CompanyID, employer.ID)
	}
	return &EmployerView{Employer: employer, Company: company}, nil
}

// UpdateCompany edits the company profile. The approval status is kept.
func (s *CompanyService) UpdateCompany(ctx context.Context, userID uuid.UUID, req *models.CompanyRequest) (*models.Company, error) {
	view, err := s.authorize(ctx, userID, models.PermissionManageCompany, false)
	if err != nil {
		return nil, err
	}

	clean := *req
	clean.Name = SanitizeText(req.Name)
	clean.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	clean.Address = sanitizeOptional(req.Address)
	clean.City = sanitizeOptional(req.City)
	clean.Country = sanitizeOptional(req.Country)
	clean.Description = sanitizeOptional(req.Description)

	company, err := s.store.UpdateCompany(ctx, view.Company.ID, &clean)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrCompanyExists
		}
		return nil, err
	}
	slog.Info("Company updated", "company_id", company.ID, "user_id", userID)
	return company, nil
}

// Resubmit puts a rejected company back in the review queue.
func (s *CompanyService) Resubmit(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	view, err := s.authorize(ctx, userID, models.PermissionManageCompany, false)
	if err != nil {
		return nil, err
	}
	if err := s.approvals.ResubmitCompany(ctx, userID, view.Company); err != nil {
		return nil, err
	}
	return s.store.GetCompanyByID(ctx, view.Company.ID)
}

// SearchCandidates lists approved candidates for an employer allowed to view them.
func (s *CompanyService) SearchCandidates(ctx context.Context, userID uuid.UUID, f models.CandidateSearch) (*models.Page[models.Candidate], error) {
	if _, err := s.authorize(ctx, userID, models.PermissionViewCandidates, true); err != nil {
		return nil, err
	}

	f.Page, f.PageSize = models.ClampPage(f.Page, f.PageSize)
	if f.City != nil {
		city := escapeLike(strings.TrimSpace(*f.City))
		if city == "" {
			f.City = nil
		} else {
			f.City = &city
		}
	}

	items, total, err := s.store.SearchApprovedCandidates(ctx, f)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Candidate]{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// ViewCandidate returns the full profile of an approved candidate.
func (s *CompanyService) ViewCandidate(ctx context.Context, userID, candidateID uuid.UUID) (*models.CandidateProfile, error) {
	candidate, err := s.AuthorizeCandidate(ctx, userID, candidateID)
	if err != nil {
		return nil, err
	}
	return s.store.GetCandidateProfile(ctx, candidate)
}

// AuthorizeCandidate returns an approved candidate if the employer may view it.
func (s *CompanyService) AuthorizeCandidate(ctx context.Context, userID, candidateID uuid.UUID) (*models.Candidate, error) {
	if _, err := s.authorize(ctx, userID, models.PermissionViewCandidates, true); err != nil {
		return nil, err
	}
	candidate, err := s.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil || candidate.ApprovalStatus != models.ApprovalApproved {
		return nil, ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *CompanyService) authorize(ctx context.Context, userID uuid.UUID, p models.Permission, needApproved bool) (*EmployerView, error) {
	view, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !view.Employer.Can(p) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, p)
	}
	if needApproved && view.Company.ApprovalStatus != models.ApprovalApproved {
		return nil, ErrCompanyNotApproved
	}
	return view, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
