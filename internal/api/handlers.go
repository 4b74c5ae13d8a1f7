package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jobgenie/internal/approval"
	"jobgenie/internal/models"
	"jobgenie/internal/profile"
	"jobgenie/internal/resume"
)

// AccountService is the account surface used by the auth handlers.
type AccountService interface {
	RegisterCandidate(ctx context.Context, req *models.RegisterCandidateRequest) (*models.User, error)
	RegisterEmployer(ctx context.Context, req *models.RegisterEmployerRequest) (*models.User, *models.Company, error)
	VerifyEmail(ctx context.Context, email, code string) (*models.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GoogleSignIn(ctx context.Context, info *models.GoogleUserInfo) (*models.AuthResponse, error)
}

// ApprovalService is the MIS review surface.
type ApprovalService interface {
	ReviewCandidate(ctx context.Context, actor approval.Actor, candidateID uuid.UUID, action approval.Action, reason string) (*models.Candidate, error)
	ReviewCompany(ctx context.Context, actor approval.Actor, companyID uuid.UUID, action approval.Action, reason string) (*models.Company, error)
	History(ctx context.Context, entity models.EntityType, id uuid.UUID) ([]models.ApprovalEvent, error)
	ListCandidates(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) (*models.Page[models.CandidateListItem], error)
	ListCompanies(ctx context.Context, status *models.ApprovalStatus, page, pageSize int) (*models.Page[models.Company], error)
	Stats(ctx context.Context) (*models.ApprovalStats, error)
	Candidate(ctx context.Context, candidateID uuid.UUID) (*models.Candidate, error)
	CandidateProfile(ctx context.Context, candidateID uuid.UUID) (*models.CandidateProfile, error)
	Company(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
}

// InvitationService manages sub-admin invitations.
type InvitationService interface {
	Invite(ctx context.Context, actorUserID uuid.UUID, req *models.InviteRequest) (*models.Invitation, error)
	Accept(ctx context.Context, req *models.AcceptInvitationRequest) (*models.AuthResponse, error)
	Revoke(ctx context.Context, actorUserID, invitationID uuid.UUID) error
	List(ctx context.Context, actorUserID uuid.UUID) ([]models.Invitation, error)
	ListSubAdmins(ctx context.Context, actorUserID uuid.UUID) ([]models.EmployerMember, error)
	RemoveSubAdmin(ctx context.Context, actorUserID, employerID uuid.UUID) error
}

// ProfileService is the candidate wizard.
type ProfileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.CandidateProfile, error)
	UpdatePersonal(ctx context.Context, userID uuid.UUID, req *models.PersonalDetailsRequest) (*models.Candidate, error)
	UpdateProfessional(ctx context.Context, userID uuid.UUID, req *models.ProfessionalDetailsRequest) (*models.Candidate, error)
	Submit(ctx context.Context, userID uuid.UUID) (*models.Candidate, error)

	ListExperiences(ctx context.Context, userID uuid.UUID) ([]models.Experience, error)
	AddExperience(ctx context.Context, userID uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error)
	UpdateExperience(ctx context.Context, userID, id uuid.UUID, req *models.ExperienceRequest) (*models.Experience, error)
	DeleteExperience(ctx context.Context, userID, id uuid.UUID) error

	ListEducations(ctx context.Context, userID uuid.UUID) ([]models.Education, error)
	AddEducation(ctx context.Context, userID uuid.UUID, req *models.EducationRequest) (*models.Education, error)
	UpdateEducation(ctx context.Context, userID, id uuid.UUID, req *models.EducationRequest) (*models.Education, error)
	DeleteEducation(ctx context.Context, userID, id uuid.UUID) error

	ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error)
	AddCertificate(ctx context.Context, userID uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error)
	UpdateCertificate(ctx context.Context, userID, id uuid.UUID, req *models.CertificateRequest) (*models.Certificate, error)
	DeleteCertificate(ctx context.Context, userID, id uuid.UUID) error
}

// CompanyService serves employers.
type CompanyService interface {
	Me(ctx context.Context, userID uuid.UUID) (*profile.EmployerView, error)
	UpdateCompany(ctx context.Context, userID uuid.UUID, req *models.CompanyRequest) (*models.Company, error)
	Resubmit(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	SearchCandidates(ctx context.Context, userID uuid.UUID, f models.CandidateSearch) (*models.Page[models.Candidate], error)
	ViewCandidate(ctx context.Context, userID, candidateID uuid.UUID) (*models.CandidateProfile, error)
	AuthorizeCandidate(ctx context.Context, userID, candidateID uuid.UUID) (*models.Candidate, error)
}

// ResumeService stores resumes and renders CVs.
type ResumeService interface {
	MaxBytes() int64
	Upload(ctx context.Context, userID uuid.UUID, fileName string, r io.Reader) (*models.Candidate, error)
	OpenOwn(ctx context.Context, userID uuid.UUID) (*resume.File, error)
	Open(ctx context.Context, candidate *models.Candidate) (*resume.File, error)
	Extract(ctx context.Context, userID uuid.UUID, apply bool) (*models.ExtractResponse, error)
	GenerateCV(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// GoogleAuth is the Google OAuth provider.
type GoogleAuth interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*models.GoogleUserInfo, error)
}

// Services groups the domain services behind the API.
type Services struct {
	Accounts    AccountService
	Approvals   ApprovalService
	Invitations InvitationService
	Profiles    ProfileService
	Companies   CompanyService
	Resumes     ResumeService
	// Google is nil when Google sign-in is not configured.
	Google GoogleAuth
}

// Handler holds API handler dependencies.
type Handler struct {
	Services
	secureCookies bool
	version       string
}

// NewHandler creates a new Handler.
func NewHandler(svc Services, secureCookies bool, version string) *Handler {
	return &Handler{Services: svc, secureCookies: secureCookies, version: version}
}

// ==================== Health Check ====================

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "jobgenie",
		"version":   h.version,
		"timestamp": time.Now(),
	})
}

// ==================== Helpers ====================

func mustUserID(c *gin.Context) uuid.UUID {
	userID, _ := GetUserID(c)
	return userID
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid " + name,
			Code:  "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, models.MessageResponse{Message: msg})
}
