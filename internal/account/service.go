package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"jobgenie/internal/auth"
	"jobgenie/internal/events"
	"jobgenie/internal/metrics"
	"jobgenie/internal/models"
	"jobgenie/internal/store"
	"jobgenie/internal/verification"
)

var (
	ErrEmailTaken          = errors.New("email is already registered")
	ErrCompanyExists       = errors.New("a company with this registration number already exists")
	ErrAlreadyVerified     = errors.New("email is already verified")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email address has not been verified")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrInvalidToken        = errors.New("invalid or expired refresh token")
	ErrSamePassword        = errors.New("new password must differ from the current one")
	ErrUserNotFound        = errors.New("user not found")
	ErrGoogleCandidateOnly = errors.New("Google sign-in is only available to candidates")
	ErrGoogleUnverified    = errors.New("Google account email is not verified")
)

// Store is the persistence the account service needs.
type Store interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetCompanyByRegistrationNumber(ctx context.Context, number string) (*models.Company, error)
	CreateUser(ctx context.Context, user *models.User) error
	CreateCandidateAccount(ctx context.Context, user *models.User, candidate *models.Candidate) error
	CreateEmployerAccount(ctx context.Context, user *models.User, company *models.Company, employer *models.Employer) error
	UpdateUserStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string, mustChange bool) error
	UpdateUserLastLogin(ctx context.Context, userID uuid.UUID) error
	LinkGoogleAccount(ctx context.Context, userID uuid.UUID, googleID string) error
	SaveRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// Codes issues and checks one-time verification codes.
type Codes interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose) (string, error)
	Check(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose, code string) error
	AllowResend(purpose models.CodePurpose, email string) error
	TTL() time.Duration
}

// Service implements registration, verification, login and password flows.
type Service struct {
	store  Store
	codes  Codes
	jwt    *auth.JWTManager
	hasher *auth.PasswordHasher
	bus    EventBus.Bus
	now    func() time.Time
}

// NewService creates an account service.
func NewService(store Store, codes Codes, jwt *auth.JWTManager, hasher *auth.PasswordHasher, bus EventBus.Bus) *Service {
	return &Service{
		store:  store,
		codes:  codes,
		jwt:    jwt,
		hasher: hasher,
		bus:    bus,
		now:    time.Now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterCandidate creates a pending candidate account and sends a verification code.
func (s *Service) RegisterCandidate(ctx context.Context, req *models.RegisterCandidateRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		Role:         models.RoleCandidate,
		Status:       models.UserStatusPendingVerification,
	}
	candidate := &models.Candidate{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.store.CreateCandidateAccount(ctx, user, candidate); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register candidate: %w", err)
	}

	metrics.RegistrationsCounter.WithLabelValues(string(models.RoleCandidate)).Inc()
	slog.Info("Candidate registered", "user_id", user.ID)

	s.sendCode(ctx, user, candidate.FirstName, models.PurposeEmailVerification)
	return user, nil
}

// RegisterEmployer creates a pending company, its super-admin employer account,
// and sends a verification code.
func (s *Service) RegisterEmployer(ctx context.Context, req *models.RegisterEmployerRequest) (*models.User, *models.Company, error) {
	email := NormalizeEmail(req.Email)
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	regNumber := strings.TrimSpace(req.Company.RegistrationNumber)
	company, err := s.store.GetCompanyByRegistrationNumber(ctx, regNumber)
	if err != nil {
		return nil, nil, err
	}
	if company != nil {
		return nil, nil, ErrCompanyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		Role:         models.RoleEmployer,
		Status:       models.UserStatusPendingVerification,
	}
	company = &models.Company{
		Name:               strings.TrimSpace(req.Company.Name),
		RegistrationNumber: regNumber,
		Industry:           req.Company.Industry,
		Website:            req.Company.Website,
		Size:               req.Company.Size,
		Address:            req.Company.Address,
		City:               req.Company.City,
		Country:            req.Company.Country,
		Description:        req.Company.Description,
	}
	employer := &models.Employer{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Designation:  req.Designation,
		IsSuperAdmin: true,
		Permissions:  models.AllPermissions,
	}

	if err := s.store.CreateEmployerAccount(ctx, user, company, employer); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			if taken, _ := s.store.GetUserByEmail(ctx, email); taken != nil {
				return nil, nil, ErrEmailTaken
			}
			return nil, nil, ErrCompanyExists
		}
		return nil, nil, fmt.Errorf("failed to register employer: %w", err)
	}

	metrics.RegistrationsCounter.WithLabelValues(string(models.RoleEmployer)).Inc()
	slog.Info("Employer registered", "user_id", user.ID, "company_id", company.ID)

	s.sendCode(ctx, user, employer.FirstName, models.PurposeEmailVerification)
	return user, company, nil
}

// CreateMISAdmin creates an active MIS administrator.
func (s *Service) CreateMISAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		Role:         models.RoleMIS,
		Status:       models.UserStatusActive,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	metrics.RegistrationsCounter.WithLabelValues(string(models.RoleMIS)).Inc()
	return user, nil
}

// VerifyEmail activates a pending account and signs it in.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*models.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, verification.ErrCodeNotFound
	}
	if user.Status != models.UserStatusPendingVerification {
		return nil, ErrAlreadyVerified
	}

	if err := s.codes.Check(ctx, user.ID, models.PurposeEmailVerification, code); err != nil {
		return nil, err
	}

	if err := s.store.UpdateUserStatus(ctx, user.ID, models.UserStatusActive); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	user.Status = models.UserStatusActive
	slog.Info("Email verified", "user_id", user.ID)

	return s.IssueSession(ctx, user)
}

// ResendVerification sends a new verification code. Unknown or already verified
// addresses succeed silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := s.codes.AllowResend(models.PurposeEmailVerification, email); err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.Status != models.UserStatusPendingVerification {
		return nil
	}
	s.sendCode(ctx, user, "", models.PurposeEmailVerification)
	return nil
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.PasswordHash.Valid || !s.hasher.Compare(user.PasswordHash.String, password) {
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case models.UserStatusPendingVerification:
		return nil, ErrEmailNotVerified
	case models.UserStatusSuspended:
		return nil, ErrAccountSuspended
	}

	return s.IssueSession(ctx, user)
}

// ForgotPassword sends a password reset code. Unknown addresses succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := s.codes.AllowResend(models.PurposePasswordReset, email); err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.Status == models.UserStatusSuspended {
		return nil
	}
	s.sendCode(ctx, user, "", models.PurposePasswordReset)
	return nil
}

// ResetPassword sets a new password using a reset code and signs out every session.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return verification.ErrCodeNotFound
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := s.codes.Check(ctx, user.ID, models.PurposePasswordReset, code); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	// The reset code proves ownership of the address.
	if user.Status == models.UserStatusPendingVerification {
		if err := s.store.UpdateUserStatus(ctx, user.ID, models.UserStatusActive); err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}
	}
	if err := s.store.RevokeAllUserTokens(ctx, user.ID); err != nil {
		slog.Error("Failed to revoke refresh tokens after password reset", "user_id", user.ID, "error", err)
	}

	slog.Info("Password reset", "user_id", user.ID)
	return nil
}

// ChangePassword replaces the password of a signed-in user.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.PasswordHash.Valid || !s.hasher.Compare(user.PasswordHash.String, current) {
		return ErrInvalidCredentials
	}
	if current == newPassword {
		return ErrSamePassword
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new token pair. The old token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	hash := auth.HashToken(refreshToken)
	token, err := s.store.GetRefreshToken(ctx, hash)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrAccountSuspended
	}

	if err := s.store.RevokeRefreshToken(ctx, hash); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.IssueSession(ctx, user)
}

// Logout revokes a refresh token. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.store.RevokeRefreshToken(ctx, auth.HashToken(refreshToken))
	if errors.Is(err, store.ErrConflict) {
		return nil
	}
	return err
}

// Me returns the signed-in user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GoogleSignIn signs in a candidate with a Google identity, linking or creating the account.
func (s *Service) GoogleSignIn(ctx context.Context, info *models.GoogleUserInfo) (*models.AuthResponse, error) {
	if !info.VerifiedEmail {
		return nil, ErrGoogleUnverified
	}

	user, err := s.store.GetUserByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		email := NormalizeEmail(info.Email)
		user, err = s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		switch {
		case user != nil && user.Role != models.RoleCandidate:
			return nil, ErrGoogleCandidateOnly
		case user != nil:
			if err := s.store.LinkGoogleAccount(ctx, user.ID, info.ID); err != nil {
				return nil, fmt.Errorf("failed to link Google account: %w", err)
			}
			if user.Status == models.UserStatusPendingVerification {
				user.Status = models.UserStatusActive
			}
			slog.Info("Linked Google account", "user_id", user.ID)
		default:
			user = &models.User{
				ID:       uuid.New(),
				Email:    email,
				Role:     models.RoleCandidate,
				Status:   models.UserStatusActive,
				GoogleID: sql.NullString{String: info.ID, Valid: true},
			}
			candidate := &models.Candidate{FirstName: info.GivenName, LastName: info.FamilyName}
			if err := s.store.CreateCandidateAccount(ctx, user, candidate); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return nil, ErrEmailTaken
				}
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
			metrics.RegistrationsCounter.WithLabelValues(string(models.RoleCandidate)).Inc()
			slog.Info("Candidate registered via Google", "user_id", user.ID)
		}
	}

	if user.Role != models.RoleCandidate {
		return nil, ErrGoogleCandidateOnly
	}
	if user.Status == models.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}
	return s.IssueSession(ctx, user)
}

// IssueSession creates a token pair for user and stores the refresh token.
func (s *Service) IssueSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	tokens, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.jwt.RefreshExpiry())
	if err := s.store.SaveRefreshToken(ctx, user.ID, auth.HashToken(tokens.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}
	if err := s.store.UpdateUserLastLogin(ctx, user.ID); err != nil {
		slog.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}

	return &models.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokens.ExpiresIn,
		User:         user.ToResponse(),
	}, nil
}

// sendCode issues a code and hands it to the notifier. Failures are logged: the
// user can always ask for another code.
func (s *Service) sendCode(ctx context.Context, user *models.User, name string, purpose models.CodePurpose) {
	code, err := s.codes.Issue(ctx, user.ID, purpose)
	if err != nil {
		slog.Error("Failed to issue verification code", "user_id", user.ID, "purpose", purpose, "error", err)
		return
	}
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.CodeIssuedTopic, events.CodeIssued{
		Email:   user.Email,
		Name:    name,
		Purpose: purpose,
		Code:    code,
		TTL:     s.codes.TTL(),
	})
}
