package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobgenie/internal/models"
)

// CreateVerificationCode stores code and consumes older live codes for the same purpose.
func (s *Store) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE verification_codes SET consumed_at = $1
			WHERE user_id = $2 AND purpose = $3 AND consumed_at IS NULL`,
			code.CreatedAt, code.UserID, code.Purpose,
		); err != nil {
			return fmt.Errorf("failed to invalidate previous codes: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO verification_codes (id, user_id, purpose, code_hash, attempts, expires_at, created_at)
			VALUES ($1, $2, $3, $4, 0, $5, $6)`,
			code.ID, code.UserID, code.Purpose, code.CodeHash, code.ExpiresAt, code.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create verification code: %w", err)
		}
		return nil
	})
}

// GetLatestVerificationCode returns the newest code for user and purpose.
func (s *Store) GetLatestVerificationCode(ctx context.Context, userID uuid.UUID, purpose models.CodePurpose) (*models.VerificationCode, error) {
	return getOne[models.VerificationCode](ctx, s.db, "verification code", `
		SELECT * FROM verification_codes
		WHERE user_id = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, purpose,
	)
}

// ClaimCodeAttempt counts one attempt unless maxAttempts were already used.
func (s *Store) ClaimCodeAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	var attempts int
	err := s.db.GetContext(ctx, &attempts, `
		UPDATE verification_codes SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2
		RETURNING attempts`,
		id, maxAttempts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record verification attempt: %w", err)
	}
	return true, nil
}

// ConsumeVerificationCode marks a code as used. A code can be consumed once;
// false means another request consumed it first.
func (s *Store) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	err := mustAffect(s.db.ExecContext(ctx,
		"UPDATE verification_codes SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL",
		at, id,
	))
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return true, nil
}

// DeleteStaleVerificationCodes removes codes that were consumed or expired before cutoff.
func (s *Store) DeleteStaleVerificationCodes(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM verification_codes WHERE consumed_at < $1 OR expires_at < $1",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete verification codes: %w", err)
	}
	return res.RowsAffected()
}
