package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/models"
)

var (
	ErrCodeNotFound    = errors.New("no verification code issued")
	ErrCodeConsumed    = errors.New("verification code already used")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many incorrect attempts")
	ErrCodeInvalid     = errors.New("verification code is incorrect")
	ErrResendTooSoon   = errors.New("please wait before requesting another code")
)

// CodeStore persists hashed verification codes.
type CodeStore interface {
	// CreateVerificationCode stores code and consumes any live code of the same user and purpose.
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	// GetLatestVerificationCode returns the newest code for user and purpose, or nil.
	GetLatestVerificationCode(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose) (*models.VerificationCode, error)
	// ClaimCodeAttempt atomically counts one attempt against the code. It
	// returns false, without counting, once maxAttempts have been used.
	ClaimCodeAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error)
	// ConsumeVerificationCode marks the code used. It returns false when the
	// code was already consumed.
	ConsumeVerificationCode(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Config controls code lifetime and attempt limits.
type Config struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// Service issues and checks one-time codes.
type Service struct {
	store    CodeStore
	cfg      Config
	cooldown *Cooldown
	now      func() time.Time
}

// NewService creates a verification service.
func NewService(store CodeStore, cfg Config) *Service {
	return &Service{
		store:    store,
		cfg:      cfg,
		cooldown: NewCooldown(cfg.ResendCooldown),
		now:      time.Now,
	}
}

// TTL returns the lifetime of issued codes.
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}

// Issue generates a new code for user and purpose, replacing any live one.
// The plaintext code is returned for delivery and never stored.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	now := s.now()
	record := &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  HashCode(code),
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.store.CreateVerificationCode(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// Check validates code against the newest code for user and purpose and
// consumes it on success.
func (s *Service) Check(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose, code string) error {
	record, err := s.store.GetLatestVerificationCode(ctx, userID, purpose)
	if err != nil {
		return fmt.Errorf("failed to load verification code: %w", err)
	}
	if record == nil {
		return ErrCodeNotFound
	}
	if record.ConsumedAt.Valid {
		return ErrCodeConsumed
	}
	now := s.now()
	if !now.Before(record.ExpiresAt) {
		return ErrCodeExpired
	}
	if record.Attempts >= s.cfg.MaxAttempts {
		return ErrTooManyAttempts
	}

	// Claim an attempt before comparing; at most MaxAttempts comparisons run.
	claimed, err := s.store.ClaimCodeAttempt(ctx, record.ID, s.cfg.MaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to record verification attempt: %w", err)
	}
	if !claimed {
		return ErrTooManyAttempts
	}

	if !MatchHash(code, record.CodeHash) {
		return ErrCodeInvalid
	}

	consumed, err := s.store.ConsumeVerificationCode(ctx, record.ID, now)
	if err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	if !consumed {
		return ErrCodeConsumed
	}
	return nil
}

// AllowResend applies the resend cooldown for purpose and email.
func (s *Service) AllowResend(purpose models.CodePurpose, email string) error {
	if ok, _ := s.cooldown.Allow(string(purpose) + ":" + email); !ok {
		return ErrResendTooSoon
	}
	return nil
}
