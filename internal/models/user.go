package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role is the kind of account a user holds.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleMIS       Role = "mis"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleMIS:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusPendingVerification UserStatus = "pending_verification"
	UserStatusActive              UserStatus = "active"
	UserStatusSuspended           UserStatus = "suspended"
)

// User represents an authenticated user.
type User struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Email              string         `json:"email" db:"email"`
	PasswordHash       sql.NullString `json:"-" db:"password_hash"`
	Role               Role           `json:"role" db:"role"`
	Status             UserStatus     `json:"status" db:"status"`
	MustChangePassword bool           `json:"must_change_password" db:"must_change_password"`
	GoogleID           sql.NullString `json:"-" db:"google_id"`
	LastLoginAt        sql.NullTime   `json:"last_login_at" db:"last_login_at"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// UserResponse is the API response for a user.
type UserResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Role               Role       `json:"role"`
	Status             UserStatus `json:"status"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
}

// ToResponse converts User to UserResponse.
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		Status:             u.Status,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
	}
	if u.LastLoginAt.Valid {
		resp.LastLoginAt = &u.LastLoginAt.Time
	}
	return resp
}

// CodePurpose distinguishes verification codes.
type CodePurpose string

const (
	PurposeEmailVerification CodePurpose = "email_verification"
	PurposePasswordReset     CodePurpose = "password_reset"
)

// VerificationCode is a hashed, time-boxed one-time code.
type VerificationCode struct {
	ID         uuid.UUID    `db:"id"`
	UserID     uuid.UUID    `db:"user_id"`
	Purpose    CodePurpose  `db:"purpose"`
	CodeHash   string       `db:"code_hash"`
	Attempts   int          `db:"attempts"`
	ExpiresAt  time.Time    `db:"expires_at"`
	ConsumedAt sql.NullTime `db:"consumed_at"`
	CreatedAt  time.Time    `db:"created_at"`
}
