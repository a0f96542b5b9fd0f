// Package ingest keeps the candidate store in step with a folder of CV documents.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cv-status/internal/apperr"
	"cv-status/internal/cv"
	"cv-status/internal/drive"
	"cv-status/internal/llm"
	"cv-status/internal/storage"
)

const DefaultConcurrency = 4

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SyncItem is the result for one listed document.
type SyncItem struct {
	RemoteID    string      `json:"remote_id"`
	Name        string      `json:"name"`
	Outcome     Outcome     `json:"outcome"`
	CandidateID string      `json:"candidate_id,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorCode   apperr.Code `json:"error_code,omitempty"`
}

// SyncReport summarizes one pass. Items follow the listing order.
type SyncReport struct {
	FolderRef string     `json:"folder_ref"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	Items     []SyncItem `json:"items"`
	Duration  string     `json:"duration"`
}

func (r *SyncReport) add(item SyncItem) {
	switch item.Outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// Orchestrator lists a folder, extracts each changed document and upserts the candidate.
type Orchestrator struct {
	db          *storage.DB
	source      drive.Source
	text        cv.TextExtractor
	extractor   llm.Extractor
	logger      *slog.Logger
	concurrency int
}

func NewOrchestrator(db *storage.DB, source drive.Source, text cv.TextExtractor, extractor llm.Extractor, logger *slog.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		db:          db,
		source:      source,
		text:        text,
		extractor:   extractor,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Sync processes every document in folderRef. A document whose fingerprint matches the
// stored one is skipped unless forceReparse is set. Only a listing failure returns an
// error on its own; per-document failures are reported as failed items.
// When ctx is cancelled no further documents are started and the partial report is
// returned together with ctx.Err().
func (o *Orchestrator) Sync(ctx context.Context, folderRef string, forceReparse bool) (*SyncReport, error) {
	start := time.Now()
	docs, err := o.source.List(ctx, folderRef)
	if err != nil {
		return nil, err
	}
	o.logger.Info("sync started", "folder", folderRef, "documents", len(docs), "force", forceReparse)

	items := make([]SyncItem, len(docs))
	started := 0

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		started++
		g.Go(func() error {
			items[i] = o.syncOne(ctx, doc, forceReparse)
			return nil
		})
	}
	_ = g.Wait()

	report := &SyncReport{FolderRef: folderRef, Items: make([]SyncItem, 0, started)}
	for _, item := range items[:started] {
		report.add(item)
	}
	report.Duration = time.Since(start).Round(time.Millisecond).String()

	o.logger.Info("sync finished",
		"folder", folderRef,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (o *Orchestrator) syncOne(ctx context.Context, doc drive.Document, force bool) SyncItem {
	item := SyncItem{RemoteID: doc.RemoteID, Name: doc.Name}
	state, seen, err := o.db.GetIngestState(ctx, doc.RemoteID)
	if err != nil {
		return o.failed(item, "lookup", err)
	}
	if seen && !force && state.Fingerprint == doc.Fingerprint {
		return o.unchanged(ctx, item, state)
	}

	content, err := o.source.Fetch(ctx, doc)
	if err != nil {
		return o.failed(item, "fetch", err)
	}
	return o.ingest(ctx, doc, content)
}

// ImportDocument ingests one uploaded file. Its identity is the content hash, so the same
// file uploaded twice maps to the same candidate.
func (o *Orchestrator) ImportDocument(ctx context.Context, name, mimeType string, content []byte) SyncItem {
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	doc := drive.Document{
		RemoteID:    "upload:" + digest,
		Name:        name,
		MimeType:    cv.ResolveMime(name, mimeType),
		Fingerprint: "sha256:" + digest,
		Size:        int64(len(content)),
	}
	item := SyncItem{RemoteID: doc.RemoteID, Name: name}
	state, seen, err := o.db.GetIngestState(ctx, doc.RemoteID)
	if err != nil {
		return o.failed(item, "lookup", err)
	}
	if seen && state.Fingerprint == doc.Fingerprint {
		// A copy under another name is the same upload; the first name is kept.
		item.CandidateID = state.CandidateID
		item.Outcome = OutcomeSkipped
		return item
	}
	return o.ingest(ctx, doc, content)
}

// unchanged handles a document whose content matches the stored cursor. A rename only
// updates source_name; nothing is re-extracted.
func (o *Orchestrator) unchanged(ctx context.Context, item SyncItem, state storage.IngestState) SyncItem {
	item.CandidateID = state.CandidateID
	if item.Name == "" || item.Name == state.SourceName {
		item.Outcome = OutcomeSkipped
		return item
	}
	if err := o.db.RenameSource(ctx, item.RemoteID, item.Name); err != nil {
		return o.failed(item, "rename", err)
	}
	o.logger.Debug("document renamed", "remote_id", item.RemoteID, "from", state.SourceName, "to", item.Name)
	item.Outcome = OutcomeUpdated
	return item
}

// ingest runs text extraction, profile extraction and the upsert for fetched content.
func (o *Orchestrator) ingest(ctx context.Context, doc drive.Document, content []byte) SyncItem {
	item := SyncItem{RemoteID: doc.RemoteID, Name: doc.Name}
	text, err := o.text.ExtractText(ctx, doc.Name, doc.MimeType, content)
	if err != nil {
		return o.failed(item, "text", err)
	}
	profile, err := o.extractor.Extract(ctx, text)
	if err != nil {
		return o.failed(item, "extract", err)
	}

	c := CandidateFromProfile(profile)
	c.RemoteID = doc.RemoteID
	c.SourceName = doc.Name
	c.Fingerprint = doc.Fingerprint
	c.RawText = text

	created, err := o.db.UpsertCandidate(ctx, c)
	if err != nil {
		return o.failed(item, "store", err)
	}
	item.CandidateID = c.ID
	if created {
		item.Outcome = OutcomeCreated
	} else {
		item.Outcome = OutcomeUpdated
	}
	o.logger.Debug("document synced", "remote_id", doc.RemoteID, "candidate_id", c.ID, "outcome", item.Outcome)
	return item
}

func (o *Orchestrator) failed(item SyncItem, step string, err error) SyncItem {
	item.Outcome = OutcomeFailed
	item.Error = fmt.Sprintf("%s: %v", step, err)
	item.ErrorCode = apperr.CodeOf(err)
	o.logger.Warn("document failed", "remote_id", item.RemoteID, "name", item.Name, "step", step, "error", err)
	return item
}

// CandidateFromProfile maps extracted fields onto a candidate. Identity, fingerprint and
// status are left to the caller.
func CandidateFromProfile(p *llm.Profile) *storage.Candidate {
	c := &storage.Candidate{
		Name:            p.FullName,
		Email:           p.Email,
		Phone:           p.Phone,
		LinkedInURL:     p.LinkedInURL,
		Location:        p.Location,
		YearsExperience: p.YearsOfExperience,
		CurrentTitle:    p.CurrentTitle,
		CurrentCompany:  p.CurrentCompany,
		Skills:          p.MainSkills,
		TechStack:       p.TechStack,
		Domains:         p.BusinessDomains,
		Summary:         p.Summary,
	}
	for _, e := range p.Education {
		c.Education = append(c.Education, storage.EducationEntry{
			Degree:      e.Degree,
			Field:       e.Field,
			Institution: e.Institution,
			Year:        e.YearOf(),
		})
	}
	for _, w := range p.WorkHistory {
		c.WorkHistory = append(c.WorkHistory, storage.WorkEntry{
			Company:     w.Company,
			Role:        w.Role,
			Years:       w.YearsOf(),
			Description: w.Description,
		})
	}
	return c
}
