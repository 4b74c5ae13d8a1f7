package models

// ParsedResume is the result of resume extraction via Gemini.
type ParsedResume struct {
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone"`
	City            string              `json:"city"`
	Country         string              `json:"country"`
	Headline        string              `json:"headline"`
	Summary         string              `json:"summary"`
	Industry        string              `json:"industry"`
	TotalExperience int                 `json:"total_experience_years"`
	Skills          []string            `json:"skills"`
	Experiences     []ParsedExperience  `json:"experiences"`
	Education       []ParsedEducation   `json:"education"`
	Certificates    []ParsedCertificate `json:"certificates"`
}

// ParsedExperience is an experience extracted from a resume.
type ParsedExperience struct {
	Title          string   `json:"title"`
	CompanyName    string   `json:"company_name"`
	Location       string   `json:"location"`
	EmploymentType string   `json:"employment_type"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	IsCurrent      bool     `json:"is_current"`
	Description    string   `json:"description"`
	Achievements   []string `json:"achievements"`
}

// ParsedEducation is education extracted from a resume.
type ParsedEducation struct {
	InstitutionName string `json:"institution_name"`
	Degree          string `json:"degree"`
	FieldOfStudy    string `json:"field_of_study"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Grade           string `json:"grade"`
}

// ParsedCertificate is a certification extracted from a resume.
type ParsedCertificate struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuing_organization"`
	IssueDate           string `json:"issue_date"`
	ExpiryDate          string `json:"expiry_date"`
	CredentialID        string `json:"credential_id"`
}

// ImportResult reports how many records an import created.
type ImportResult struct {
	ExperiencesImported  int  `json:"experiences_imported"`
	EducationImported    int  `json:"education_imported"`
	CertificatesImported int  `json:"certificates_imported"`
	ProfileUpdated       bool `json:"profile_updated"`
}

// ExtractResponse is returned by the resume extraction endpoint.
type ExtractResponse struct {
	Parsed *ParsedResume `json:"parsed"`
	Import *ImportResult `json:"import,omitempty"`
}
