package storage

import (
	"time"

	"cv-status/internal/status"
)

// Candidate is one person parsed from one remote document.
// RemoteID is the identity: documents may be renamed, so SourceName is informational only.
type Candidate struct {
	ID              string           `json:"id"`
	RemoteID        string           `json:"remote_id"`
	SourceName      string           `json:"source_name"`
	Fingerprint     string           `json:"-"`
	Name            string           `json:"full_name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	LinkedInURL     string           `json:"linkedin_url"`
	Location        string           `json:"location"`
	YearsExperience *float64         `json:"years_of_experience"`
	CurrentTitle    string           `json:"current_title"`
	CurrentCompany  string           `json:"current_company"`
	Skills          []string         `json:"main_skills"`
	TechStack       []string         `json:"tech_stack"`
	Domains         []string         `json:"business_domains"`
	Education       []EducationEntry `json:"education"`
	WorkHistory     []WorkEntry      `json:"work_history"`
	Summary         string           `json:"cv_summary"`
	RawText         string           `json:"-"`
	Status          status.Status    `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type EducationEntry struct {
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution"`
	Year        *int   `json:"year,omitempty"`
}

type WorkEntry struct {
	Company     string   `json:"company"`
	Role        string   `json:"role"`
	Years       *float64 `json:"years,omitempty"`
	Description string   `json:"description,omitempty"`
}

// CandidateFilter used to search for candidates.
type CandidateFilter struct {
	Status   *status.Status `json:"status,omitempty"`
	Skills   []string       `json:"skills,omitempty"` // any of
	Domain   string         `json:"domain,omitempty"`
	MinYears *float64       `json:"min_years,omitempty"`
	MaxYears *float64       `json:"max_years,omitempty"`
	Query    string         `json:"q,omitempty"` // name, title or summary
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// EmailTemplate is a reusable outreach message with {{placeholders}}.
type EmailTemplate struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject"`
	BodyHTML     string    `json:"body_html"`
	BodyText     string    `json:"body_text"`
	BodyMarkdown string    `json:"body_markdown,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Campaign is one send of one template to one candidate.
type Campaign struct {
	ID                 string     `json:"id"`
	CandidateID        string     `json:"candidate_id"`
	TemplateID         string     `json:"template_id,omitempty"`
	RenderedSubject    string     `json:"rendered_subject"`
	RenderedHTML       string     `json:"-"`
	RenderedText       string     `json:"-"`
	TrackingToken      string     `json:"tracking_token"`
	TransportMessageID string     `json:"transport_message_id,omitempty"`
	SentAt             time.Time  `json:"sent_at"`
	OpenCount          int        `json:"open_count"`
	FirstOpenedAt      *time.Time `json:"first_opened_at,omitempty"`
	LastOpenedAt       *time.Time `json:"last_opened_at,omitempty"`
	RepliedAt          *time.Time `json:"replied_at,omitempty"`
	BouncedAt          *time.Time `json:"bounced_at,omitempty"`
	UnsubscribedAt     *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CampaignFilter narrows ListCampaigns.
type CampaignFilter struct {
	CandidateID string
	Limit       int
	Offset      int
}

// EventKind is the audit vocabulary for email engagement.
type EventKind string

const (
	EventSent         EventKind = "sent"
	EventDelivered    EventKind = "delivered"
	EventOpened       EventKind = "opened"
	EventClicked      EventKind = "clicked"
	EventBounced      EventKind = "bounced"
	EventUnsubscribed EventKind = "unsubscribed"
	EventReplied      EventKind = "replied"
)

// EmailEvent is an append-only audit row. CampaignID/CandidateID are empty for
// events that could not be correlated (e.g. a reply from an unknown sender).
type EmailEvent struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id,omitempty"`
	CandidateID string    `json:"candidate_id,omitempty"`
	Kind        EventKind `json:"kind"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	URL         string    `json:"url,omitempty"`
	RawPayload  string    `json:"raw_payload,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SyncJob represents an async folder sync
type SyncJob struct {
	ID           string     `json:"id"`
	FolderRef    string     `json:"folder_ref"`
	ForceReparse bool       `json:"force_reparse"`
	Status       string     `json:"status"` // pending, processing, completed, failed
	ReportJSON   string     `json:"-"`
	ErrorMessage string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)
