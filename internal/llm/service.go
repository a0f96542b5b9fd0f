package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cv-status/internal/apperr"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderVertex    Provider = "vertex"
	ProviderNone      Provider = "none"
)

// MaxInputChars caps how much CV text is sent to the model.
const MaxInputChars = 15000

// Extractor turns document text into a Profile or fails with EXTRACTION_FAILED.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Profile, error)
}

// Generator is a single-prompt completion backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service implements Extractor on top of any Generator.
type Service struct {
	gen     Generator
	logger  *slog.Logger
	timeout time.Duration
}

func NewService(gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:     gen,
		logger:  logger,
		timeout: 10 * time.Minute, // large CVs on local models are slow
	}
}

func (s *Service) Extract(ctx context.Context, text string) (*Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.ExtractionFailed("no text extracted", nil)
	}
	text = truncateRunes(text, MaxInputChars)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	response, err := s.gen.Generate(ctx, buildPrompt(text))
	if err != nil {
		s.logger.Warn("llm call failed", "error", err, "elapsed", time.Since(start))
		return nil, apperr.ExtractionFailed("model call failed", err)
	}
	s.logger.Debug("llm responded", "elapsed", time.Since(start), "chars", len(response))

	profile, err := ParseProfile(response)
	if err != nil {
		s.logger.Warn("llm response rejected", "error", err, "preview", truncateRunes(response, 200))
		return nil, err
	}
	return profile, nil
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

const systemPrompt = "You are a CV parser. Return only valid JSON."

func buildPrompt(cvText string) string {
	return fmt.Sprintf(`You are an expert CV parser. Extract structured information from this CV.

CV Text:
"""
%s
"""

Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{
  "full_name": "Full name",
  "email": "email address or empty string",
  "phone": "phone number or empty string",
  "linkedin_url": "LinkedIn profile URL or empty string",
  "location": "City, Country",
  "years_of_experience": 0,
  "current_title": "Current job title",
  "current_company": "Current employer",
  "main_skills": ["Top skills, most important first"],
  "tech_stack": ["Languages, frameworks, tools"],
  "business_domains": ["Industries such as fintech, healthcare, e-commerce"],
  "education": [
    {"degree": "Degree", "field": "Field of study", "institution": "University", "year": null}
  ],
  "work_history": [
    {"company": "Company", "role": "Job title", "years": null, "description": "One sentence"}
  ],
  "cv_summary": "Two or three sentence summary of the candidate"
}

Important:
- Normalize skill names (e.g., "K8s" -> "Kubernetes", "JS" -> "JavaScript")
- Compute years_of_experience from the work history when it is not stated
- List work_history most recent first
- Use null for unknown numbers and empty arrays for missing lists
- Write all values in English`, cvText)
}
