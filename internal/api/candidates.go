package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cv-status/internal/apperr"
	"cv-status/internal/export"
	"cv-status/internal/ingest"
	"cv-status/internal/status"
	"cv-status/internal/storage"
)

// CandidateDetail is a candidate with its outreach history.
type CandidateDetail struct {
	*storage.Candidate
	Campaigns []*storage.Campaign   `json:"campaigns"`
	Events    []*storage.EmailEvent `json:"events"`
}

// StatusUpdate is the body of a manual status change.
type StatusUpdate struct {
	Status string `json:"status" example:"INTERESTED"`
}

// SyncRequest starts a folder sync. FolderID defaults to the configured Drive folder.
type SyncRequest struct {
	FolderID     string `json:"folder_id"`
	ForceReparse bool   `json:"force_reparse"`
	Async        bool   `json:"async"`
}

// SyncJobResponse is a job row with its decoded report once finished.
type SyncJobResponse struct {
	*storage.SyncJob
	Report json.RawMessage `json:"report,omitempty" swaggertype:"object"`
}

// ListCandidatesHandler searches candidates
// @Summary List candidates
// @Description Filter candidates by status, skill, domain, experience and free text
// @Tags candidates
// @Produce json
// @Param status query string false "PENDING, EMAILED, EMAIL_OPENED, REPLIED, INTERESTED or NOT_INTERESTED"
// @Param skill query string false "Skill (comma separated, any of)"
// @Param domain query string false "Business domain"
// @Param min_years query number false "Minimum years of experience"
// @Param max_years query number false "Maximum years of experience"
// @Param q query string false "Free text over name, title and summary"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {array} storage.Candidate
// @Failure 400 {object} ErrorBody
// @Router /candidates [get]
func (a *API) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	f, err := candidateFilter(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	cands, err := a.db.SearchCandidates(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if cands == nil {
		cands = []*storage.Candidate{}
	}
	a.writeJSON(w, http.StatusOK, cands)
}

func candidateFilter(r *http.Request) (storage.CandidateFilter, error) {
	q := r.URL.Query()
	var f storage.CandidateFilter
	var err error

	if raw := q.Get("status"); raw != "" {
		s, err := status.Parse(raw)
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	for _, v := range q["skill"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Skills = append(f.Skills, s)
			}
		}
	}
	f.Domain = strings.TrimSpace(q.Get("domain"))
	f.Query = strings.TrimSpace(q.Get("q"))
	if f.MinYears, err = queryFloat(r, "min_years"); err != nil {
		return f, err
	}
	if f.MaxYears, err = queryFloat(r, "max_years"); err != nil {
		return f, err
	}
	if f.MinYears != nil && f.MaxYears != nil && *f.MinYears > *f.MaxYears {
		return f, apperr.Validation("min_years must not exceed max_years")
	}
	if f.Limit, err = queryInt(r, "limit", 50); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

// GetCandidateHandler returns one candidate with its campaigns and events
// @Summary Get candidate
// @Tags candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} CandidateDetail
// @Failure 404 {object} ErrorBody
// @Router /candidates/{id} [get]
func (a *API) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	cand, err := a.db.GetCandidate(ctx, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	camps, err := a.db.ListCampaigns(ctx, storage.CampaignFilter{CandidateID: id, Limit: 100})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	evs, err := a.db.ListEvents(ctx, storage.EventFilter{CandidateID: id, Limit: 500})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if camps == nil {
		camps = []*storage.Campaign{}
	}
	if evs == nil {
		evs = []*storage.EmailEvent{}
	}
	a.writeJSON(w, http.StatusOK, CandidateDetail{Candidate: cand, Campaigns: camps, Events: evs})
}

// UpdateCandidateStatusHandler sets a status manually
// @Summary Set candidate status
// @Description Manual override; any status may be set from any status
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param body body StatusUpdate true "New status"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} ErrorBody
// @Failure 404 {object} ErrorBody
// @Router /candidates/{id} [patch]
func (a *API) UpdateCandidateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdate
	if err := decodeJSON(w, r, &req, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	target, err := status.Parse(req.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	cand, err := a.tracker.SetStatus(r.Context(), r.PathValue("id"), target)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, cand)
}

// DeleteCandidateHandler removes a candidate and its outreach history
// @Summary Delete candidate
// @Tags candidates
// @Param id path string true "Candidate ID"
// @Success 204
// @Failure 404 {object} ErrorBody
// @Router /candidates/{id} [delete]
func (a *API) DeleteCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.db.DeleteCandidate(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("candidate deleted", "candidate_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SyncHandler ingests every CV in a Drive folder
// @Summary Sync candidates from Drive
// @Description Unchanged documents are skipped unless force_reparse is set. With async the sync runs as a background job.
// @Tags candidates
// @Accept json
// @Produce json
// @Param body body SyncRequest false "Sync options"
// @Success 200 {object} ingest.SyncReport
// @Success 202 {object} storage.SyncJob
// @Failure 400 {object} ErrorBody
// @Failure 403 {object} ErrorBody
// @Router /candidates/sync [post]
func (a *API) SyncHandler(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		a.writeError(w, r, err)
		return
	}
	folder := strings.TrimSpace(req.FolderID)
	if folder == "" {
		folder = a.defaultFolder
	}
	if folder == "" {
		a.writeError(w, r, apperr.Validation("folder_id is required (no default Drive folder configured)"))
		return
	}

	if req.Async {
		if a.jobs == nil {
			a.writeError(w, r, apperr.Validation("async sync is not enabled"))
			return
		}
		job, err := a.jobs.Enqueue(r.Context(), folder, req.ForceReparse)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.writeJSON(w, http.StatusAccepted, job)
		return
	}

	report, err := a.orch.Sync(r.Context(), folder, req.ForceReparse)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, report)
}

// GetSyncJobHandler reports an async sync
// @Summary Get sync job
// @Tags candidates
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} SyncJobResponse
// @Failure 404 {object} ErrorBody
// @Router /sync/jobs/{id} [get]
func (a *API) GetSyncJobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := a.db.GetSyncJob(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := SyncJobResponse{SyncJob: job}
	if job.ReportJSON != "" {
		resp.Report = json.RawMessage(job.ReportJSON)
	}
	a.writeJSON(w, http.StatusOK, resp)
}

var uploadExtensions = map[string]bool{".pdf": true, ".docx": true, ".doc": true, ".txt": true, ".md": true}

// UploadCandidateHandler ingests one uploaded CV
// @Summary Upload a CV
// @Description Upload a CV file (PDF/DOCX/TXT). Re-uploading identical content is a no-op.
// @Tags candidates
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CV file"
// @Success 201 {object} ingest.SyncItem
// @Success 200 {object} ingest.SyncItem
// @Failure 400 {object} ErrorBody
// @Failure 422 {object} ingest.SyncItem
// @Router /candidates/upload [post]
func (a *API) UploadCandidateHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody+1024)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		a.writeError(w, r, apperr.Validation("file too large or invalid (max 10MB)"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, apperr.Validation("no file uploaded"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExtensions[ext] {
		a.writeError(w, r, apperr.Validationf("invalid file type %q (supported: PDF, DOCX, DOC, TXT, MD)", ext))
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		a.writeError(w, r, apperr.Validationf("failed to read upload: %v", err))
		return
	}

	item := a.orch.ImportDocument(r.Context(), header.Filename, header.Header.Get("Content-Type"), content)
	switch item.Outcome {
	case ingest.OutcomeCreated:
		a.writeJSON(w, http.StatusCreated, item)
	case ingest.OutcomeFailed:
		a.writeJSON(w, codeStatus(item.ErrorCode), item)
	default:
		a.writeJSON(w, http.StatusOK, item)
	}
}

func codeStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInternal, "":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// ExportHandler downloads candidates and campaigns as a workbook
// @Summary Export to Excel
// @Tags candidates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /candidates/export.xlsx [get]
func (a *API) ExportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := export.Load(r.Context(), a.db)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		a.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("candidates-%s.xlsx", report.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Last-Modified", report.GeneratedAt.UTC().Format(http.TimeFormat))
	_, _ = buf.WriteTo(w)
}
