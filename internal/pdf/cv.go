package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"jobgenie/internal/models"
)

var cvTemplate = template.Must(template.New("cv").Funcs(template.FuncMap{
	"month": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Jan 2006")
	},
	"monthOf": func(t time.Time) string { return t.Format("Jan 2006") },
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"join":  strings.Join,
	"label": label,
}).Parse(cvHTML))

type detail struct {
	Label string
	Value string
}

type cvData struct {
	Name       string
	Email      string
	Location   string
	Industry   string
	Details    []detail
	Experience int
	Profile    *models.CandidateProfile
}

// RenderCV renders a candidate profile as a printable HTML document.
func RenderCV(p *models.CandidateProfile) (string, error) {
	if p == nil || p.Candidate == nil {
		return "", fmt.Errorf("candidate profile is required")
	}
	c := p.Candidate

	data := cvData{
		Name:    strings.TrimSpace(c.FirstName + " " + c.LastName),
		Email:   p.Email,
		Profile: p,
	}
	var location []string
	for _, s := range []*string{c.City, c.Country} {
		if s != nil && *s != "" {
			location = append(location, *s)
		}
	}
	data.Location = strings.Join(location, ", ")
	if c.Industry != nil {
		data.Industry = strings.ToUpper(string(*c.Industry))
		if *c.Industry != models.IndustryIT {
			data.Industry = label(string(*c.Industry))
		}
	}
	if c.TotalExperienceYears != nil {
		data.Experience = *c.TotalExperienceYears
	}
	details, err := flattenDetails(c.IndustryDetails)
	if err != nil {
		return "", err
	}
	data.Details = details

	var buf bytes.Buffer
	if err := cvTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render CV: %w", err)
	}
	return buf.String(), nil
}

// flattenDetails turns the industry details document into sorted label/value rows.
func flattenDetails(raw models.JSONB) ([]detail, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid industry details: %w", err)
	}

	out := make([]detail, 0, len(m))
	for k, v := range m {
		var value string
		switch x := v.(type) {
		case []any:
			parts := make([]string, 0, len(x))
			for _, item := range x {
				parts = append(parts, fmt.Sprint(item))
			}
			value = strings.Join(parts, ", ")
		case nil:
		default:
			value = fmt.Sprint(x)
		}
		if value == "" {
			continue
		}
		out = append(out, detail{Label: label(k), Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// label turns a snake_case key into "Title case".
func label(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const cvHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
@page { size: A4; margin: 0; }
body { font-family: "Helvetica Neue", Arial, sans-serif; color: #222; font-size: 11pt; line-height: 1.4; margin: 0; }
header { border-bottom: 2px solid #1f4e79; padding-bottom: 8px; margin-bottom: 12px; }
h1 { margin: 0; font-size: 22pt; color: #1f4e79; }
h2 { font-size: 13pt; color: #1f4e79; border-bottom: 1px solid #ccc; margin: 16px 0 6px; }
.meta { color: #555; }
.item { margin-bottom: 8px; page-break-inside: avoid; }
.item .when { float: right; color: #555; }
.item .title { font-weight: bold; }
ul { margin: 4px 0 0 18px; padding: 0; }
table.details td { padding: 1px 12px 1px 0; vertical-align: top; }
</style>
</head>
<body>
<header>
  <h1>{{.Name}}</h1>
  {{with .Profile.Candidate.Headline}}<div>{{.}}</div>{{end}}
  <div class="meta">{{.Email}}{{with .Profile.Candidate.Phone}} · {{.}}{{end}}{{with .Location}} · {{.}}{{end}}</div>
</header>

{{with .Profile.Candidate.Summary}}<h2>Summary</h2><p>{{.}}</p>{{end}}

{{if .Industry}}
<h2>{{.Industry}}</h2>
<table class="details">
  {{if .Experience}}<tr><td>Experience</td><td>{{.Experience}} years</td></tr>{{end}}
  {{range .Details}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}
</table>
{{end}}

{{with .Profile.Experiences}}
<h2>Experience</h2>
{{range .}}
<div class="item">
  <span class="when">{{monthOf .StartDate}} – {{if .IsCurrent}}Present{{else}}{{month .EndDate}}{{end}}</span>
  <div class="title">{{.Title}}, {{.CompanyName}}</div>
  {{with .Location}}<div class="meta">{{.}}</div>{{end}}
  {{with .Description}}<div>{{.}}</div>{{end}}
  {{with .Achievements}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>
{{end}}
{{end}}

{{with .Profile.Educations}}
<h2>Education</h2>
{{range .}}
<div class="item">
  <span class="when">{{month .StartDate}}{{if or .EndDate .IsCurrent}} – {{if .IsCurrent}}Present{{else}}{{month .EndDate}}{{end}}{{end}}</span>
  <div class="title">{{.InstitutionName}}</div>
  <div>{{str .Degree}}{{if and .Degree .FieldOfStudy}}, {{end}}{{str .FieldOfStudy}}{{with .Grade}} ({{.}}){{end}}</div>
</div>
{{end}}
{{end}}

{{with .Profile.Certificates}}
<h2>Certificates</h2>
{{range .}}
<div class="item">
  <span class="when">{{month .IssueDate}}</span>
  <div class="title">{{.Name}}</div>
  {{with .IssuingOrganization}}<div class="meta">{{.}}</div>{{end}}
</div>
{{end}}
{{end}}
</body>
</html>
`
