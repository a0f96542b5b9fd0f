package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"cv-status/internal/apperr"
)

// Profile is the structured result of one extraction.
type Profile struct {
	FullName          string      `json:"full_name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	LinkedInURL       string      `json:"linkedin_url"`
	Location          string      `json:"location"`
	YearsOfExperience *float64    `json:"years_of_experience"`
	CurrentTitle      string      `json:"current_title"`
	CurrentCompany    string      `json:"current_company"`
	MainSkills        []string    `json:"main_skills"`
	TechStack         []string    `json:"tech_stack"`
	BusinessDomains   []string    `json:"business_domains"`
	Education         []Education `json:"education"`
	WorkHistory       []Work      `json:"work_history"`
	Summary           string      `json:"cv_summary"`
}

type Education struct {
	Degree      string  `json:"degree"`
	Field       string  `json:"field"`
	Institution string  `json:"institution"`
	Year        flexInt `json:"year"`
}

type Work struct {
	Company     string    `json:"company"`
	Role        string    `json:"role"`
	Years       flexFloat `json:"years"`
	Description string    `json:"description"`
}

// flexFloat accepts 5, 5.5, "5", "5+ years" or null. Models are not consistent.
type flexFloat struct{ Value *float64 }

var leadingNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	f.Value = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.Value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Unusable shapes (objects, arrays) read as unknown.
		return nil
	}
	if m := leadingNumber.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			f.Value = &v
		}
	}
	return nil
}

func (f flexFloat) MarshalJSON() ([]byte, error) { return json.Marshal(f.Value) }

// flexInt is a flexFloat truncated to an int, used for years like 2019 or "2019".
type flexInt struct{ Value *int }

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var ff flexFloat
	if err := ff.UnmarshalJSON(b); err != nil {
		return err
	}
	f.Value = nil
	if ff.Value != nil {
		v := int(*ff.Value)
		f.Value = &v
	}
	return nil
}

func (f flexInt) MarshalJSON() ([]byte, error) { return json.Marshal(f.Value) }

// rawProfile mirrors Profile with tolerant numeric fields.
type rawProfile struct {
	Profile
	YearsOfExperience flexFloat `json:"years_of_experience"`
}

// ParseProfile decodes a model response into a Profile. It tolerates Markdown code fences
// and chatter around the JSON object.
func ParseProfile(response string) (*Profile, error) {
	body := stripFences(response)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, apperr.ExtractionFailed("model response contains no JSON object", nil)
	}

	var raw rawProfile
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, apperr.ExtractionFailed("model response is not valid JSON", err)
	}

	p := raw.Profile
	p.YearsOfExperience = raw.YearsOfExperience.Value
	if p.YearsOfExperience != nil && *p.YearsOfExperience < 0 {
		p.YearsOfExperience = nil
	}
	p.normalize()

	if p.FullName == "" && p.Email == "" {
		return nil, apperr.ExtractionFailed("no candidate name or email found", nil)
	}
	return &p, nil
}

func (p *Profile) normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.LinkedInURL = strings.TrimSpace(p.LinkedInURL)
	p.Location = strings.TrimSpace(p.Location)
	p.CurrentTitle = strings.TrimSpace(p.CurrentTitle)
	p.CurrentCompany = strings.TrimSpace(p.CurrentCompany)
	p.Summary = strings.TrimSpace(p.Summary)
	if !strings.Contains(p.Email, "@") {
		p.Email = ""
	}
	p.MainSkills = cleanList(p.MainSkills)
	p.TechStack = cleanList(p.TechStack)
	p.BusinessDomains = cleanList(p.BusinessDomains)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// YearsOf returns the parsed years for a work entry.
func (w Work) YearsOf() *float64 { return w.Years.Value }

// YearOf returns the parsed graduation year.
func (e Education) YearOf() *int { return e.Year.Value }
