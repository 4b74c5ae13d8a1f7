package invitation

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
	"github.com/samber/lo"

	"jobgenie/internal/auth"
	"jobgenie/internal/events"
	"jobgenie/internal/models"
	"jobgenie/internal/store"
	"jobgenie/internal/verification"
)

var (
	ErrNotSuperAdmin      = errors.New("only the company super-admin can manage sub-admins")
	ErrCompanyNotApproved = errors.New("company is not approved")
	ErrAlreadyInvited     = errors.New("a pending invitation already exists for this email")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidPermission  = errors.New("invalid permission")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationClosed   = errors.New("invitation is no longer pending")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvalidCredentials = errors.New("invalid temporary password")
	ErrPasswordUnchanged  = errors.New("new password must differ from the temporary password")
	ErrSubAdminNotFound   = errors.New("sub-admin not found")
	ErrCannotRemove       = errors.New("super-admins cannot be removed")
)

// DefaultTTL is how long an invitation stays valid when no TTL is configured.
const DefaultTTL = 72 * time.Hour

// delegable lists the permissions a super-admin may grant.
var delegable = []string{
	string(models.PermissionPostJobs),
	string(models.PermissionViewCandidates),
}

// Store is the persistence the invitation service needs.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetEmployerByUserID(ctx context.Context, userID uuid.UUID) (*models.Employer, error)
	GetEmployerByID(ctx context.Context, id uuid.UUID) (*models.Employer, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error)
	GetLivePendingInvitation(ctx context.Context, companyID uuid.UUID, email string) (*models.Invitation, error)
	ListInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error
	AcceptInvitation(ctx context.Context, inv *models.Invitation, user *models.User, employer *models.Employer) error
	ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.EmployerMember, error)
	RemoveEmployer(ctx context.Context, employer *models.Employer) error
}

// Sessions signs a freshly created account in.
type Sessions interface {
	IssueSession(ctx context.Context, user *models.User) (*models.AuthResponse, error)
}

// Service manages employer sub-admin invitations.
type Service struct {
	store    Store
	sessions Sessions
	hasher   *auth.PasswordHasher
	bus      EventBus.Bus
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates an invitation service.
func NewService(store Store, sessions Sessions, hasher *auth.PasswordHasher, bus EventBus.Bus, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:    store,
		sessions: sessions,
		hasher:   hasher,
		bus:      bus,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Invite creates a pending invitation and hands the token and temporary password
// to the notifier.
func (s *Service) Invite(ctx context.Context, actorUserID uuid.UUID, req *models.InviteRequest) (*models.Invitation, error) {
	inviter, company, err := s.superAdmin(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	if company.ApprovalStatus != models.ApprovalApproved {
		return nil, ErrCompanyNotApproved
	}

	permissions, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	pending, err := s.store.GetLivePendingInvitation(ctx, company.ID, email)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrAlreadyInvited
	}

	token, tokenHash, err := verification.NewToken()
	if err != nil {
		return nil, err
	}
	tempPassword, err := verification.GenerateTempPassword()
	if err != nil {
		return nil, err
	}
	tempHash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		CompanyID:        company.ID,
		InvitedBy:        inviter.ID,
		Email:            email,
		Permissions:      permissions,
		TokenHash:        tokenHash,
		TempPasswordHash: tempHash,
		ExpiresAt:        s.now().Add(s.ttl).UTC(),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	slog.Info("Sub-admin invited",
		"invitation_id", inv.ID,
		"company_id", company.ID,
		"invited_by", inviter.ID,
		"permissions", permissions,
	)

	if s.bus != nil {
		s.bus.Publish(events.InvitationCreatedTopic, events.InvitationCreated{
			InvitationID: inv.ID,
			Email:        email,
			CompanyName:  company.Name,
			InviterName:  strings.TrimSpace(inviter.FirstName + " " + inviter.LastName),
			Token:        token,
			TempPassword: tempPassword,
			ExpiresAt:    inv.ExpiresAt,
		})
	}
	return inv, nil
}

// Accept turns a pending invitation into an active employer account and signs it in.
func (s *Service) Accept(ctx context.Context, req *models.AcceptInvitationRequest) (*models.AuthResponse, error) {
	inv, err := s.store.GetInvitationByTokenHash(ctx, verification.HashCode(req.Token))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationClosed
	}
	if inv.IsExpired(s.now()) {
		if err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationPending, models.InvitationExpired); err != nil &&
			!errors.Is(err, store.ErrConflict) {
			slog.Warn("Failed to mark invitation expired", "invitation_id", inv.ID, "error", err)
		}
		return nil, ErrInvitationExpired
	}
	if !s.hasher.Compare(inv.TempPasswordHash, req.TempPassword) {
		return nil, ErrInvalidCredentials
	}
	if req.NewPassword == req.TempPassword {
		return nil, ErrPasswordUnchanged
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, inv.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        inv.Email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		Role:         models.RoleEmployer,
		Status:       models.UserStatusActive,
	}
	employer := &models.Employer{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       req.Phone,
		Permissions: inv.Permissions,
	}

	if err := s.store.AcceptInvitation(ctx, inv, user, employer); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrInvitationClosed
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	slog.Info("Invitation accepted", "invitation_id", inv.ID, "user_id", user.ID, "company_id", inv.CompanyID)
	return s.sessions.IssueSession(ctx, user)
}

// Revoke cancels a pending invitation of the actor's company.
func (s *Service) Revoke(ctx context.Context, actorUserID, invitationID uuid.UUID) error {
	_, company, err := s.superAdmin(ctx, actorUserID)
	if err != nil {
		return err
	}

	inv, err := s.store.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil || inv.CompanyID != company.ID {
		return ErrInvitationNotFound
	}
	if inv.Status != models.InvitationPending {
		return ErrInvitationClosed
	}

	if err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationPending, models.InvitationRevoked); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvitationClosed
		}
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	slog.Info("Invitation revoked", "invitation_id", inv.ID, "company_id", company.ID)
	return nil
}

// List returns the invitations of the actor's company.
func (s *Service) List(ctx context.Context, actorUserID uuid.UUID) ([]models.Invitation, error) {
	_, company, err := s.superAdmin(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListInvitations(ctx, company.ID)
}

// ListSubAdmins returns the non super-admin members of the actor's company.
func (s *Service) ListSubAdmins(ctx context.Context, actorUserID uuid.UUID) ([]models.EmployerMember, error) {
	_, company, err := s.superAdmin(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListCompanyMembers(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(members, func(m models.EmployerMember, _ int) bool {
		return !m.IsSuperAdmin
	}), nil
}

// RemoveSubAdmin detaches a sub-admin from the company and suspends the account.
func (s *Service) RemoveSubAdmin(ctx context.Context, actorUserID, employerID uuid.UUID) error {
	actor, _, err := s.superAdmin(ctx, actorUserID)
	if err != nil {
		return err
	}

	target, err := s.store.GetEmployerByID(ctx, employerID)
	if err != nil {
		return err
	}
	if target == nil || target.CompanyID != actor.CompanyID {
		return ErrSubAdminNotFound
	}
	if target.ID == actor.ID || target.IsSuperAdmin {
		return ErrCannotRemove
	}

	if err := s.store.RemoveEmployer(ctx, target); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrCannotRemove
		}
		return fmt.Errorf("failed to remove sub-admin: %w", err)
	}
	slog.Info("Sub-admin removed", "employer_id", target.ID, "user_id", target.UserID, "removed_by", actor.ID)
	return nil
}

func (s *Service) superAdmin(ctx context.Context, userID uuid.UUID) (*models.Employer, *models.Company, error) {
	employer, err := s.store.GetEmployerByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if employer == nil || !employer.IsSuperAdmin {
		return nil, nil, ErrNotSuperAdmin
	}

	company, err := s.store.GetCompanyByID(ctx, employer.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, fmt.Errorf("company %s of employer %s not found", employer.CompanyID, employer.ID)
	}
	return employer, company, nil
}

// normalizePermissions de-duplicates the requested permissions and rejects any that
// cannot be delegated. No permissions means view-only access.
func normalizePermissions(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{string(models.PermissionViewCandidates)}, nil
	}
	out := lo.Uniq(lo.Map(requested, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
	for _, p := range out {
		if !lo.Contains(delegable, p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, p)
		}
	}
	return out, nil
}
