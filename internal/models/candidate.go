package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Industry is the professional field a candidate profile is built for.
type Industry string

const (
	IndustryIT      Industry = "it"
	IndustryBanking Industry = "banking"
	IndustryFinance Industry = "finance"
)

// Industries lists every supported industry.
var Industries = []Industry{IndustryIT, IndustryBanking, IndustryFinance}

// Valid reports whether i is a supported industry.
func (i Industry) Valid() bool {
	switch i {
	case IndustryIT, IndustryBanking, IndustryFinance:
		return true
	}
	return false
}

// JSONB holds a raw JSON document stored in a jsonb column.
type JSONB []byte

// Scan implements sql.Scanner.
func (j *JSONB) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// MarshalJSON returns the stored document, or null when empty.
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores a copy of data.
func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// Candidate is a job seeker's profile and its review state.
type Candidate struct {
	ID                   uuid.UUID      `json:"id" db:"id"`
	UserID               uuid.UUID      `json:"user_id" db:"user_id"`
	FirstName            string         `json:"first_name" db:"first_name"`
	LastName             string         `json:"last_name" db:"last_name"`
	Phone                *string        `json:"phone,omitempty" db:"phone"`
	DateOfBirth          *time.Time     `json:"date_of_birth,omitempty" db:"date_of_birth"`
	City                 *string        `json:"city,omitempty" db:"city"`
	Country              *string        `json:"country,omitempty" db:"country"`
	Headline             *string        `json:"headline,omitempty" db:"headline"`
	Summary              *string        `json:"summary,omitempty" db:"summary"`
	Industry             *Industry      `json:"industry,omitempty" db:"industry"`
	IndustryDetails      JSONB          `json:"industry_details,omitempty" db:"industry_details"`
	TotalExperienceYears *int           `json:"total_experience_years,omitempty" db:"total_experience_years"`
	CurrentSalary        *int           `json:"current_salary,omitempty" db:"current_salary"`
	ExpectedSalary       *int           `json:"expected_salary,omitempty" db:"expected_salary"`
	NoticePeriodDays     *int           `json:"notice_period_days,omitempty" db:"notice_period_days"`
	ResumeKey            *string        `json:"-" db:"resume_key"`
	ResumeFileName       *string        `json:"resume_file_name,omitempty" db:"resume_file_name"`
	ResumeContentType    *string        `json:"resume_content_type,omitempty" db:"resume_content_type"`
	ResumeUploadedAt     *time.Time     `json:"resume_uploaded_at,omitempty" db:"resume_uploaded_at"`
	WizardStep           int            `json:"wizard_step" db:"wizard_step"`
	SubmittedAt          *time.Time     `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovalStatus       ApprovalStatus `json:"approval_status" db:"approval_status"`
	RejectionReason      *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy           *uuid.UUID     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt           *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// IsSubmitted reports whether the candidate has submitted the profile for review.
func (c *Candidate) IsSubmitted() bool {
	return c.SubmittedAt != nil
}

// HasResume reports whether a resume file is on record.
func (c *Candidate) HasResume() bool {
	return c.ResumeKey != nil && *c.ResumeKey != ""
}

// CandidateListItem is a candidate row joined with the account email.
type CandidateListItem struct {
	Candidate
	Email string `json:"email" db:"email"`
}

// PersonalDetailsRequest is wizard step 1.
type PersonalDetailsRequest struct {
	FirstName   string  `json:"first_name" binding:"required,max=100"`
	LastName    string  `json:"last_name" binding:"required,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,phone"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	Country     *string `json:"country" binding:"omitempty,max=100"`
	Headline    *string `json:"headline" binding:"omitempty,max=200"`
	Summary     *string `json:"summary" binding:"omitempty,max=5000"`
}

// ProfessionalDetailsRequest is wizard step 2. Details is decoded against the
// schema of the chosen industry.
type ProfessionalDetailsRequest struct {
	Industry             Industry `json:"industry" binding:"required,industry"`
	Details              JSONB    `json:"details" binding:"required"`
	TotalExperienceYears *int     `json:"total_experience_years" binding:"omitempty,min=0,max=60"`
	CurrentSalary        *int     `json:"current_salary" binding:"omitempty,min=0"`
	ExpectedSalary       *int     `json:"expected_salary" binding:"omitempty,min=0"`
	NoticePeriodDays     *int     `json:"notice_period_days" binding:"omitempty,min=0,max=365"`
}

// CandidateSearch filters approved candidates for employers.
type CandidateSearch struct {
	Industry *Industry
	City     *string
	Page     int
	PageSize int
}
