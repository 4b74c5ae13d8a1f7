package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobgenie/internal/models"
)

// ==================== User Operations ====================

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getOne[models.User](ctx, s.db, "user", "SELECT * FROM users WHERE id = $1", id)
}

// GetUserByEmail retrieves a user by email. Emails are stored lower-cased.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getOne[models.User](ctx, s.db, "user", "SELECT * FROM users WHERE email = $1", strings.ToLower(email))
}

// GetUserByGoogleID retrieves a user by Google ID.
func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return getOne[models.User](ctx, s.db, "user", "SELECT * FROM users WHERE google_id = $1", googleID)
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, status, must_change_password, google_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		user.ID, user.Email, user.PasswordHash, user.Role, user.Status, user.MustChangePassword, user.GoogleID,
	).StructScan(user)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateUser creates a user with no role-specific row (MIS administrators).
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, user)
	})
}

// UpdateUserStatus sets the account status.
func (s *Store) UpdateUserStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2",
		status, userID,
	)
	return err
}

// UpdateUserPassword replaces the password hash and the must-change flag.
func (s *Store) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string, mustChange bool) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, must_change_password = $2, updated_at = NOW() WHERE id = $3",
		passwordHash, mustChange, userID,
	)
	return err
}

// UpdateUserLastLogin updates the last login timestamp.
func (s *Store) UpdateUserLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1",
		userID,
	)
	return err
}

// LinkGoogleAccount stores the Google ID and activates a pending account,
// since Google has verified the address.
func (s *Store) LinkGoogleAccount(ctx context.Context, userID uuid.UUID, googleID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET google_id = $1,
			status = CASE WHEN status = 'pending_verification' THEN 'active' ELSE status END,
			updated_at = NOW()
		WHERE id = $2`,
		googleID, userID,
	)
	return err
}

// ==================== Refresh Token Operations ====================

// SaveRefreshToken stores a refresh token.
func (s *Store) SaveRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt,
	)
	return err
}

// GetRefreshToken retrieves a live refresh token by hash.
func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return getOne[models.RefreshToken](ctx, s.db, "refresh token", `
		SELECT * FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()`,
		tokenHash,
	)
}

// RevokeRefreshToken revokes a live refresh token. ErrConflict means the
// token was already revoked, so only one caller can rotate it.
func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return mustAffect(s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL",
		tokenHash,
	))
}

// RevokeAllUserTokens revokes all refresh tokens for a user.
func (s *Store) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL",
		userID,
	)
	return err
}

// DeleteStaleRefreshTokens removes refresh tokens that expired or were revoked before cutoff.
func (s *Store) DeleteStaleRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
