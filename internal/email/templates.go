package email

import (
	"fmt"
	"strings"
	"text/template"
)

// Template names.
const (
	TemplateVerificationCode  = "verification_code"
	TemplatePasswordReset     = "password_reset"
	TemplateInvitation        = "invitation"
	TemplateCandidateApproved = "candidate_approved"
	TemplateCandidateRejected = "candidate_rejected"
	TemplateCandidateRevoked  = "candidate_revoked"
	TemplateCompanyApproved   = "company_approved"
	TemplateCompanyRejected   = "company_rejected"
	TemplateCompanyRevoked    = "company_revoked"
)

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templateSources = map[string][2]string{
	TemplateVerificationCode: {
		"Your {{.AppName}} verification code",
		`Hello {{.Name}},

Your verification code is {{.Code}}. It expires in {{.ExpiresInMinutes}} minutes.

If you did not create a {{.AppName}} account, you can ignore this email.
`,
	},
	TemplatePasswordReset: {
		"Reset your {{.AppName}} password",
		`Hello {{.Name}},

Use the code {{.Code}} to reset your password. It expires in {{.ExpiresInMinutes}} minutes.

If you did not request a password reset, you can ignore this email.
`,
	},
	TemplateInvitation: {
		"{{.InviterName}} invited you to join {{.CompanyName}} on {{.AppName}}",
		`Hello,

{{.InviterName}} invited you to manage {{.CompanyName}} on {{.AppName}}.

Accept the invitation here: {{.AcceptURL}}
Temporary password: {{.TempPassword}}

You will be asked to choose your own password. The invitation expires on {{.ExpiresAt}}.
`,
	},
	TemplateCandidateApproved: {
		"Your {{.AppName}} profile is approved",
		`Hello {{.Name}},

Your profile has been approved and is now visible to employers.
{{if .Reason}}
Note from our team: {{.Reason}}
{{end}}
Sign in: {{.FrontendURL}}
`,
	},
	TemplateCandidateRejected: {
		"Your {{.AppName}} profile needs changes",
		`Hello {{.Name}},

Your profile was not approved for the following reason:

{{.Reason}}

Please update your profile and submit it again: {{.FrontendURL}}
`,
	},
	TemplateCandidateRevoked: {
		"Your {{.AppName}} profile is under review again",
		`Hello {{.Name}},

Your profile has been moved back to review.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}
We will notify you once the review is complete.
`,
	},
	TemplateCompanyApproved: {
		"{{.CompanyName}} is approved on {{.AppName}}",
		`Hello,

{{.CompanyName}} has been approved. You can now invite team members and browse candidates.

Sign in: {{.FrontendURL}}
`,
	},
	TemplateCompanyRejected: {
		"{{.CompanyName}} was not approved on {{.AppName}}",
		`Hello,

{{.CompanyName}} was not approved for the following reason:

{{.Reason}}

Please update the company details and resubmit: {{.FrontendURL}}
`,
	},
	TemplateCompanyRevoked: {
		"{{.CompanyName}} is under review again on {{.AppName}}",
		`Hello,

The approval of {{.CompanyName}} has been withdrawn and the company is under review again.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}`,
	},
}

func parseTemplates() (map[string]*mailTemplate, error) {
	out := make(map[string]*mailTemplate, len(templateSources))
	for name, src := range templateSources {
		subject, err := template.New(name + ".subject").Option("missingkey=error").Parse(src[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Option("missingkey=error").Parse(src[1])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s body: %w", name, err)
		}
		out[name] = &mailTemplate{subject: subject, body: body}
	}
	return out, nil
}

func (t *mailTemplate) render(data map[string]any) (subject, body string, err error) {
	var sb, bb strings.Builder
	if err := t.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}
