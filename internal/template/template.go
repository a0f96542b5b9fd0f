// Package template validates and renders outreach email templates. Placeholders are
// written {{name}} and must come from a fixed vocabulary; an unknown name is rejected
// when the template is saved, so rendering never has to guess.
package template

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/yuin/goldmark"

	"cv-status/internal/apperr"
	"cv-status/internal/storage"
)

// Candidate-derived placeholders.
const (
	VarCandidateName     = "candidate_name"
	VarFirstName         = "first_name"
	VarCandidateEmail    = "candidate_email"
	VarCandidateTitle    = "candidate_title"
	VarCandidateCompany  = "candidate_company"
	VarCandidateLocation = "candidate_location"
	VarYearsOfExperience = "years_of_experience"
	VarTopSkills         = "top_skills"
)

// Send-time placeholders, supplied by whoever triggers the send.
const (
	VarSenderName = "sender_name"
	VarRole       = "role"
	VarCompany    = "company"
)

// Vocabulary is every placeholder a template may use.
var Vocabulary = []string{
	VarCandidateName, VarFirstName, VarCandidateEmail, VarCandidateTitle, VarCandidateCompany,
	VarCandidateLocation, VarYearsOfExperience, VarTopSkills,
	VarSenderName, VarRole, VarCompany,
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(Vocabulary))
	for _, v := range Vocabulary {
		m[v] = true
	}
	return m
}()

const (
	fallbackName = "there"
	topSkillsN   = 5
)

var placeholderRE = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// encodedRE matches a placeholder whose braces were percent-encoded inside a URL.
var encodedRE = regexp.MustCompile(`(?i)%7B%7B(?:\s|%20)*(.*?)(?:\s|%20)*%7D%7D`)

// Vars maps placeholder names to their values for one send.
type Vars map[string]string

// SendContext carries the send-time values.
type SendContext struct {
	SenderName string `json:"sender_name"`
	Role       string `json:"role"`
	Company    string `json:"company"`
}

// Rendered is a fully substituted message.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// IsKnown reports whether name is part of the vocabulary.
func IsKnown(name string) bool { return known[name] }

// Placeholders returns the distinct placeholder names in text, in order of first use.
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Prepare fills BodyHTML from BodyMarkdown when only Markdown was given, then validates.
func Prepare(t *storage.EmailTemplate) error {
	if strings.TrimSpace(t.BodyHTML) == "" && strings.TrimSpace(t.BodyMarkdown) != "" {
		out, err := markdownBody(t.BodyMarkdown)
		if err != nil {
			return err
		}
		t.BodyHTML = out
	}
	return Validate(t)
}

// markdownBody converts md and fails when a placeholder did not come through intact.
// goldmark percent-encodes link and image destinations and drops raw HTML.
func markdownBody(md string) (string, error) {
	out, err := MarkdownToHTML(md)
	if err != nil {
		return "", apperr.Validationf("body_markdown: %v", err)
	}
	kept := countPlaceholders(out)
	var lost []string
	for name, n := range countPlaceholders(md) {
		if kept[name] < n {
			lost = append(lost, name)
		}
	}
	// Autolinks repeat the URL as link text, so the counts above can balance.
	for _, m := range encodedRE.FindAllStringSubmatch(out, -1) {
		if !slices.Contains(lost, m[1]) {
			lost = append(lost, m[1])
		}
	}
	if len(lost) > 0 {
		slices.Sort(lost)
		err := apperr.Validationf("body_markdown: placeholder(s) {{%s}} do not survive Markdown conversion; put links and images that use them in body_html",
			strings.Join(lost, "}}, {{"))
		err.Details = map[string]any{"lost": lost}
		return "", err
	}
	return out, nil
}

func countPlaceholders(text string) map[string]int {
	counts := map[string]int{}
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		counts[m[1]]++
	}
	return counts
}

// Validate rejects templates that could not be rendered for every candidate.
func Validate(t *storage.EmailTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validation("template name is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return apperr.Validation("template subject is required")
	}
	if strings.TrimSpace(t.BodyHTML) == "" && strings.TrimSpace(t.BodyText) == "" {
		return apperr.Validation("template needs an HTML or text body")
	}

	var unknown []string
	for _, field := range []string{t.Subject, t.BodyHTML, t.BodyText, t.BodyMarkdown} {
		for _, name := range Placeholders(field) {
			if !known[name] && !slices.Contains(unknown, name) {
				unknown = append(unknown, name)
			}
		}
	}
	if len(unknown) > 0 {
		err := apperr.Validationf("unknown placeholder(s): {{%s}}", strings.Join(unknown, "}}, {{"))
		err.Details = map[string]any{"unknown": unknown, "allowed": Vocabulary}
		return err
	}
	return nil
}

// Render substitutes vars into every part of t. It fails as a whole when any placeholder
// has no value, so a half-rendered message is never produced.
func Render(t *storage.EmailTemplate, vars Vars) (*Rendered, error) {
	subject, err := substitute(t.Subject, vars, false)
	if err != nil {
		return nil, err
	}
	body := t.BodyHTML
	if strings.TrimSpace(body) == "" && strings.TrimSpace(t.BodyMarkdown) != "" {
		if body, err = markdownBody(t.BodyMarkdown); err != nil {
			return nil, err
		}
	}
	htmlOut, err := substitute(body, vars, true)
	if err != nil {
		return nil, err
	}
	textOut, err := substitute(t.BodyText, vars, false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(textOut) == "" && htmlOut != "" {
		if textOut, err = html2text.FromString(htmlOut, html2text.Options{OmitLinks: false}); err != nil {
			return nil, fmt.Errorf("derive text body: %w", err)
		}
	}
	if strings.TrimSpace(htmlOut) == "" {
		htmlOut = "<p>" + strings.ReplaceAll(html.EscapeString(textOut), "\n", "<br>") + "</p>"
	}
	// Subjects are single-line headers.
	subject = strings.Join(strings.Fields(subject), " ")
	return &Rendered{Subject: subject, HTML: htmlOut, Text: textOut}, nil
}

func substitute(text string, vars Vars, escape bool) (string, error) {
	var missing []string
	out := placeholderRE.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRE.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok || !known[name] {
			missing = append(missing, name)
			return m
		}
		if escape {
			return html.EscapeString(v)
		}
		return v
	})
	if len(missing) > 0 {
		return "", apperr.Validationf("cannot render: no value for {{%s}}", strings.Join(missing, "}}, {{"))
	}
	return out, nil
}

// VarsFor builds the full variable set for sending to c.
func VarsFor(c *storage.Candidate, sc SendContext) Vars {
	name := strings.TrimSpace(c.Name)
	first := fallbackName
	if fields := strings.Fields(name); len(fields) > 0 {
		first = fields[0]
	}
	if name == "" {
		name = fallbackName
	}

	years := ""
	if c.YearsExperience != nil {
		years = strconv.Itoa(int(math.Floor(*c.YearsExperience)))
	}
	skills := c.Skills
	if len(skills) > topSkillsN {
		skills = skills[:topSkillsN]
	}

	return Vars{
		VarCandidateName:     name,
		VarFirstName:         first,
		VarCandidateEmail:    c.Email,
		VarCandidateTitle:    c.CurrentTitle,
		VarCandidateCompany:  c.CurrentCompany,
		VarCandidateLocation: c.Location,
		VarYearsOfExperience: years,
		VarTopSkills:         strings.Join(skills, ", "),
		VarSenderName:        sc.SenderName,
		VarRole:              sc.Role,
		VarCompany:           sc.Company,
	}
}

// MarkdownToHTML converts a Markdown body to HTML. Placeholders pass through untouched.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
