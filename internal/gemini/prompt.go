package gemini

import "fmt"

func buildExtractPrompt(fileName string) string {
	return fmt.Sprintf(`Extract the information in the attached resume into a structured format.

File Name: %s

Extract:

1. PERSONAL INFO: first name, last name, email, phone, city, country, a short professional
   headline and a summary.

2. INDUSTRY: the single best fit among "it", "banking" and "finance". Use an empty string if
   none of them fits.

3. TOTAL EXPERIENCE: total years of professional experience as an integer.

4. SKILLS: a flat list of skill names.

5. WORK EXPERIENCE: for each position the job title, company name, location, employment type
   (full_time, part_time, contract, internship, freelance), start date, end date, whether it is
   the current position, a description and key achievements.

6. EDUCATION: for each entry the institution, degree, field of study, start date, end date and
   grade.

7. CERTIFICATES: for each certificate the name, issuing organization, issue date, expiry date
   and credential ID.

Rules:
- If information is not available, use an empty string or an empty array
- Dates must be YYYY-MM-DD, YYYY-MM or YYYY
- Leave end_date empty for current positions and set is_current to true only when the resume
  says so explicitly
- Do not invent information that is not in the resume

Return only JSON:
{
  "first_name": "string",
  "last_name": "string",
  "email": "string",
  "phone": "string",
  "city": "string",
  "country": "string",
  "headline": "string",
  "summary": "string",
  "industry": "it | banking | finance | empty",
  "total_experience_years": 0,
  "skills": ["string"],
  "experiences": [
    {
      "title": "string",
      "company_name": "string",
      "location": "string",
      "employment_type": "string",
      "start_date": "YYYY-MM",
      "end_date": "YYYY-MM",
      "is_current": false,
      "description": "string",
      "achievements": ["string"]
    }
  ],
  "education": [
    {
      "institution_name": "string",
      "degree": "string",
      "field_of_study": "string",
      "start_date": "YYYY-MM",
      "end_date": "YYYY-MM",
      "grade": "string"
    }
  ],
  "certificates": [
    {
      "name": "string",
      "issuing_organization": "string",
      "issue_date": "YYYY-MM",
      "expiry_date": "YYYY-MM",
      "credential_id": "string"
    }
  ]
}`, fileName)
}
