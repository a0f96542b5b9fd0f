package cv

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"cv-status/internal/apperr"
	"cv-status/internal/llm"
)

// BasicExtractor is the llm.Extractor used when LLM_PROVIDER=none. It pulls contact
// details with regular expressions and matches a fixed skill list.
type BasicExtractor struct{}

func NewBasicExtractor() *BasicExtractor {
	return &BasicExtractor{}
}

var (
	emailRE    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRE    = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	linkedinRE = regexp.MustCompile(`(?i)(https?://)?([a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+/?`)
	yearsRE    = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(years|yrs)`)
)

// Common skill keywords
var skillKeywords = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript",
	"React", "Vue", "Angular", "Node.js", "Docker", "Kubernetes",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "AWS", "Azure", "GCP",
	"GraphQL", "REST", "Microservices", "Git", "CI/CD",
	"Machine Learning", "Data Science", "DevOps",
}

var skillRE = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(skillKeywords))
	for _, s := range skillKeywords {
		m[s] = regexp.MustCompile(`(?i)(^|[^A-Za-z0-9+#])` + regexp.QuoteMeta(s) + `($|[^A-Za-z0-9+#])`)
	}
	return m
}()

func (e *BasicExtractor) Extract(ctx context.Context, text string) (*llm.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.ExtractionFailed("no text extracted", nil)
	}

	p := &llm.Profile{
		Email:       emailRE.FindString(text),
		LinkedInURL: linkedinRE.FindString(text),
		FullName:    guessName(text),
		MainSkills:  []string{},
	}
	if m := phoneRE.FindString(text); m != "" {
		p.Phone = strings.TrimSpace(m)
	}
	if m := yearsRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.YearsOfExperience = &v
		}
	}
	for _, skill := range skillKeywords {
		if skillRE[skill].MatchString(text) {
			p.MainSkills = append(p.MainSkills, skill)
		}
	}

	if p.FullName == "" && p.Email == "" {
		return nil, apperr.ExtractionFailed("no candidate name or email found", nil)
	}
	return p, nil
}

// guessName takes the first short line without digits or an @ as the name.
func guessName(text string) string {
	for i, line := range strings.Split(text, "\n") {
		if i > 5 {
			break
		}
		line = strings.TrimSpace(line)
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 || strings.ContainsAny(line, "@0123456789:/|") {
			continue
		}
		return line
	}
	return ""
}
