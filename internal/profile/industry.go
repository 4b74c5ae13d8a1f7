package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"jobgenie/internal/models"
)

// ErrInvalidDetails wraps decoding and validation failures of industry details.
var ErrInvalidDetails = errors.New("invalid industry details")

var detailsValidator = validator.New()

// ITDetails is the wizard schema for IT candidates.
type ITDetails struct {
	PrimarySkills        []string `json:"primary_skills" validate:"required,min=1,max=30,dive,required,max=100"`
	ProgrammingLanguages []string `json:"programming_languages,omitempty" validate:"omitempty,max=30,dive,required,max=50"`
	GithubURL            string   `json:"github_url,omitempty" validate:"omitempty,url"`
	PortfolioURL         string   `json:"portfolio_url,omitempty" validate:"omitempty,url"`
	PreferredRole        string   `json:"preferred_role,omitempty" validate:"omitempty,oneof=backend frontend fullstack devops data qa mobile other"`
}

// BankingDetails is the wizard schema for banking candidates.
type BankingDetails struct {
	BankingArea           string   `json:"banking_area" validate:"required,oneof=retail corporate investment operations risk compliance"`
	Certifications        []string `json:"certifications,omitempty" validate:"omitempty,max=20,dive,required,max=100"`
	BranchExperienceYears int      `json:"branch_experience_years" validate:"min=0,max=60"`
	RegulatoryKnowledge   []string `json:"regulatory_knowledge,omitempty" validate:"omitempty,max=20,dive,required,max=100"`
}

// FinanceDetails is the wizard schema for finance candidates.
type FinanceDetails struct {
	FinanceArea   string   `json:"finance_area" validate:"required,oneof=accounting audit tax fp&a treasury investment"`
	Qualification string   `json:"qualification" validate:"required,oneof=ca cfa acca cpa cma mba other none"`
	CFALevel      int      `json:"cfa_level" validate:"min=0,max=3"`
	Tools         []string `json:"tools,omitempty" validate:"omitempty,max=30,dive,required,max=100"`
}

func detailsFor(industry models.Industry) (any, error) {
	switch industry {
	case models.IndustryIT:
		return &ITDetails{}, nil
	case models.IndustryBanking:
		return &BankingDetails{}, nil
	case models.IndustryFinance:
		return &FinanceDetails{}, nil
	}
	return nil, fmt.Errorf("%w: unsupported industry %q", ErrInvalidDetails, industry)
}

// ValidateDetails decodes raw against the schema of industry, rejecting unknown
// fields, and returns the canonical JSON to store.
func ValidateDetails(industry models.Industry, raw models.JSONB) (models.JSONB, error) {
	target, err := detailsFor(industry)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: details are required", ErrInvalidDetails)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}
	if err := detailsValidator.Struct(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	sanitizeDetails(target)

	out, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("failed to encode industry details: %w", err)
	}
	return out, nil
}

func sanitizeDetails(target any) {
	switch d := target.(type) {
	case *ITDetails:
		d.PrimarySkills = sanitizeList(d.PrimarySkills)
		d.ProgrammingLanguages = sanitizeList(d.ProgrammingLanguages)
	case *BankingDetails:
		d.Certifications = sanitizeList(d.Certifications)
		d.RegulatoryKnowledge = sanitizeList(d.RegulatoryKnowledge)
	case *FinanceDetails:
		d.Tools = sanitizeList(d.Tools)
	}
}
