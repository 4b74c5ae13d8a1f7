package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ApprovalStatus is the MIS review state of a candidate profile or a company.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Company is an employer organisation reviewed by MIS.
type Company struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Name               string         `json:"name" db:"name"`
	RegistrationNumber string         `json:"registration_number" db:"registration_number"`
	Industry           string         `json:"industry" db:"industry"`
	Website            *string        `json:"website,omitempty" db:"website"`
	Size               *string        `json:"size,omitempty" db:"size"`
	Address            *string        `json:"address,omitempty" db:"address"`
	City               *string        `json:"city,omitempty" db:"city"`
	Country            *string        `json:"country,omitempty" db:"country"`
	Description        *string        `json:"description,omitempty" db:"description"`
	ApprovalStatus     ApprovalStatus `json:"approval_status" db:"approval_status"`
	RejectionReason    *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy         *uuid.UUID     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt         *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// CompanyRequest carries company fields on registration and edits.
type CompanyRequest struct {
	Name               string  `json:"name" binding:"required,max=200"`
	RegistrationNumber string  `json:"registration_number" binding:"required,max=64"`
	Industry           string  `json:"industry" binding:"required,industry"`
	Website            *string `json:"website" binding:"omitempty,url"`
	Size               *string `json:"size" binding:"omitempty,oneof=1-10 11-50 51-200 201-1000 1000+"`
	Address            *string `json:"address" binding:"omitempty,max=500"`
	City               *string `json:"city" binding:"omitempty,max=100"`
	Country            *string `json:"country" binding:"omitempty,max=100"`
	Description        *string `json:"description" binding:"omitempty,max=5000"`
}

// Permission is a capability granted to an employer account.
type Permission string

const (
	PermissionPostJobs       Permission = "post_jobs"
	PermissionViewCandidates Permission = "view_candidates"
	PermissionManageCompany  Permission = "manage_company"
)

// AllPermissions is granted to the super-admin who registered the company.
var AllPermissions = []string{
	string(PermissionPostJobs),
	string(PermissionViewCandidates),
	string(PermissionManageCompany),
}

// Employer links a user account to a company.
type Employer struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	CompanyID    uuid.UUID      `json:"company_id" db:"company_id"`
	FirstName    string         `json:"first_name" db:"first_name"`
	LastName     string         `json:"last_name" db:"last_name"`
	Phone        *string        `json:"phone,omitempty" db:"phone"`
	Designation  *string        `json:"designation,omitempty" db:"designation"`
	IsSuperAdmin bool           `json:"is_super_admin" db:"is_super_admin"`
	Permissions  pq.StringArray `json:"permissions" db:"permissions"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Can reports whether the employer holds permission p. Super-admins hold every permission.
func (e *Employer) Can(p Permission) bool {
	if e.IsSuperAdmin {
		return true
	}
	for _, have := range e.Permissions {
		if have == string(p) {
			return true
		}
	}
	return false
}

// EmployerMember is an employer row joined with its account email and status.
type EmployerMember struct {
	Employer
	Email  string     `json:"email" db:"email"`
	Status UserStatus `json:"status" db:"status"`
}

// InvitationStatus is the lifecycle state of a sub-admin invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a time-boxed offer to join a company as a sub-admin.
type Invitation struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	CompanyID        uuid.UUID        `json:"company_id" db:"company_id"`
	InvitedBy        uuid.UUID        `json:"invited_by" db:"invited_by"`
	Email            string           `json:"email" db:"email"`
	Permissions      pq.StringArray   `json:"permissions" db:"permissions"`
	TokenHash        string           `json:"-" db:"token_hash"`
	TempPasswordHash string           `json:"-" db:"temp_password_hash"`
	Status           InvitationStatus `json:"status" db:"status"`
	ExpiresAt        time.Time        `json:"expires_at" db:"expires_at"`
	AcceptedAt       *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the invitation has passed its deadline at now.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
