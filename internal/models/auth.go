package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// RegisterCandidateRequest is the body of candidate self-registration.
type RegisterCandidateRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,password"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
}

// RegisterEmployerRequest is the body of employer registration, which also registers the company.
type RegisterEmployerRequest struct {
	Email       string         `json:"email" binding:"required,email,max=254"`
	Password    string         `json:"password" binding:"required,password"`
	FirstName   string         `json:"first_name" binding:"required,max=100"`
	LastName    string         `json:"last_name" binding:"required,max=100"`
	Phone       *string        `json:"phone" binding:"omitempty,phone"`
	Designation *string        `json:"designation" binding:"omitempty,max=100"`
	Company     CompanyRequest `json:"company" binding:"required"`
}

// VerifyEmailRequest carries an emailed verification code.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// EmailRequest carries only an email address.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest is the password login body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,password"`
}

// ChangePasswordRequest changes the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,password"`
}

// RefreshRequest is the request for refreshing tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// InviteRequest invites a sub-admin into the employer's company.
type InviteRequest struct {
	Email       string   `json:"email" binding:"required,email,max=254"`
	Permissions []string `json:"permissions" binding:"omitempty,dive,permission"`
}

// AcceptInvitationRequest completes an invitation.
type AcceptInvitationRequest struct {
	Token        string  `json:"token" binding:"required"`
	TempPassword string  `json:"temp_password" binding:"required"`
	NewPassword  string  `json:"new_password" binding:"required,password"`
	FirstName    string  `json:"first_name" binding:"required,max=100"`
	LastName     string  `json:"last_name" binding:"required,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
}

// AuthResponse is returned after successful authentication.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// GoogleUserInfo is the identity returned by Google's userinfo endpoint.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}
