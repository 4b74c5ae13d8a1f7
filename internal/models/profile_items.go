package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Experience represents a work experience entry.
type Experience struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	Title          string         `json:"title" db:"title"`
	CompanyName    string         `json:"company_name" db:"company_name"`
	EmploymentType *string        `json:"employment_type,omitempty" db:"employment_type"`
	Location       *string        `json:"location,omitempty" db:"location"`
	StartDate      time.Time      `json:"start_date" db:"start_date"`
	EndDate        *time.Time     `json:"end_date,omitempty" db:"end_date"`
	IsCurrent      bool           `json:"is_current" db:"is_current"`
	Description    *string        `json:"description,omitempty" db:"description"`
	Achievements   pq.StringArray `json:"achievements" db:"achievements"`
	ImportedFrom   *string        `json:"imported_from,omitempty" db:"imported_from"`
	DisplayOrder   int            `json:"display_order" db:"display_order"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// ExperienceRequest is the API request for creating/updating an experience.
type ExperienceRequest struct {
	Title          string   `json:"title" binding:"required,max=200"`
	CompanyName    string   `json:"company_name" binding:"required,max=200"`
	EmploymentType *string  `json:"employment_type" binding:"omitempty,oneof=full_time part_time contract internship freelance"`
	Location       *string  `json:"location" binding:"omitempty,max=200"`
	StartDate      string   `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	IsCurrent      bool     `json:"is_current"`
	Description    *string  `json:"description" binding:"omitempty,max=5000"`
	Achievements   []string `json:"achievements" binding:"omitempty,max=20,dive,max=500"`
	DisplayOrder   *int     `json:"display_order" binding:"omitempty,min=0"`
}

// Education represents an education entry.
type Education struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	InstitutionName string     `json:"institution_name" db:"institution_name"`
	Degree          *string    `json:"degree,omitempty" db:"degree"`
	FieldOfStudy    *string    `json:"field_of_study,omitempty" db:"field_of_study"`
	Grade           *string    `json:"grade,omitempty" db:"grade"`
	StartDate       *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsCurrent       bool       `json:"is_current" db:"is_current"`
	Description     *string    `json:"description,omitempty" db:"description"`
	ImportedFrom    *string    `json:"imported_from,omitempty" db:"imported_from"`
	DisplayOrder    int        `json:"display_order" db:"display_order"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// EducationRequest is the API request for creating/updating education.
type EducationRequest struct {
	InstitutionName string  `json:"institution_name" binding:"required,max=200"`
	Degree          *string `json:"degree" binding:"omitempty,max=200"`
	FieldOfStudy    *string `json:"field_of_study" binding:"omitempty,max=200"`
	Grade           *string `json:"grade" binding:"omitempty,max=50"`
	StartDate       *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate         *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	IsCurrent       bool    `json:"is_current"`
	Description     *string `json:"description" binding:"omitempty,max=5000"`
	DisplayOrder    *int    `json:"display_order" binding:"omitempty,min=0"`
}

// Certificate is a professional certification held by a candidate.
type Certificate struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	UserID              uuid.UUID  `json:"user_id" db:"user_id"`
	Name                string     `json:"name" db:"name"`
	IssuingOrganization *string    `json:"issuing_organization,omitempty" db:"issuing_organization"`
	IssueDate           *time.Time `json:"issue_date,omitempty" db:"issue_date"`
	ExpiryDate          *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	CredentialID        *string    `json:"credential_id,omitempty" db:"credential_id"`
	CredentialURL       *string    `json:"credential_url,omitempty" db:"credential_url"`
	ImportedFrom        *string    `json:"imported_from,omitempty" db:"imported_from"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// CertificateRequest is the API request for creating/updating a certificate.
type CertificateRequest struct {
	Name                string  `json:"name" binding:"required,max=200"`
	IssuingOrganization *string `json:"issuing_organization" binding:"omitempty,max=200"`
	IssueDate           *string `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	ExpiryDate          *string `json:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
	CredentialID        *string `json:"credential_id" binding:"omitempty,max=100"`
	CredentialURL       *string `json:"credential_url" binding:"omitempty,url"`
}

// CandidateProfile is the complete candidate profile used for review and CV generation.
type CandidateProfile struct {
	Email        string        `json:"email"`
	Candidate    *Candidate    `json:"candidate"`
	Experiences  []Experience  `json:"experiences"`
	Educations   []Education   `json:"educations"`
	Certificates []Certificate `json:"certificates"`
}
