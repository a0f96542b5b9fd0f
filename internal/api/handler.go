package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"cv-status/internal/apperr"
	"cv-status/internal/campaign"
	"cv-status/internal/events"
	"cv-status/internal/ingest"
	"cv-status/internal/notify"
	"cv-status/internal/storage"
)

const (
	maxJSONBody    = 1 << 20
	maxWebhookBody = 5 << 20
	maxUploadBody  = 10 << 20
)

// Options carries everything the handlers depend on. Jobs and Hub may be nil, in which
// case async sync and the websocket stream are unavailable.
type Options struct {
	DB            *storage.DB
	Orchestrator  *ingest.Orchestrator
	Jobs          *ingest.JobRunner
	Tracker       *campaign.Tracker
	Gateway       *events.Gateway
	Hub           *notify.Hub
	DefaultFolder string
	AdminKey      string
	BaseURL       string
	Logger        *slog.Logger
}

type API struct {
	db            *storage.DB
	orch          *ingest.Orchestrator
	jobs          *ingest.JobRunner
	tracker       *campaign.Tracker
	gateway       *events.Gateway
	hub           *notify.Hub
	defaultFolder string
	adminKey      string
	baseURL       string
	logger        *slog.Logger
}

func NewAPI(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		db:            opts.DB,
		orch:          opts.Orchestrator,
		jobs:          opts.Jobs,
		tracker:       opts.Tracker,
		gateway:       opts.Gateway,
		hub:           opts.Hub,
		defaultFolder: opts.DefaultFolder,
		adminKey:      opts.AdminKey,
		baseURL:       opts.BaseURL,
		logger:        logger,
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    apperr.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Warn("failed to encode response", "error", err)
	}
}

// writeError maps coded errors to their HTTP status. Uncoded errors become a 500 with a
// generic message; the cause is only logged.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err)
		e.Message = "internal error"
	}
	status := apperr.StatusOf(e)
	if status >= 500 {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	a.writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details}})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validationf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, apperr.Validationf("%s must be a non-negative number", key)
	}
	return &f, nil
}
