package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL(a.baseURL+"/swagger/doc.json"),
	))

	mux.HandleFunc("GET /health", a.healthHandler)

	// Candidates
	mux.HandleFunc("GET /api/candidates", a.ListCandidatesHandler)
	mux.HandleFunc("POST /api/candidates/sync", a.SyncHandler)
	mux.HandleFunc("POST /api/candidates/upload", a.UploadCandidateHandler)
	mux.HandleFunc("GET /api/candidates/export.xlsx", a.ExportHandler)
	mux.HandleFunc("GET /api/candidates/{id}", a.GetCandidateHandler)
	mux.HandleFunc("PATCH /api/candidates/{id}", a.UpdateCandidateStatusHandler)
	mux.HandleFunc("DELETE /api/candidates/{id}", a.DeleteCandidateHandler)
	mux.HandleFunc("GET /api/sync/jobs/{id}", a.GetSyncJobHandler)

	// Templates and sends
	mux.HandleFunc("GET /api/emails/templates", a.ListTemplatesHandler)
	mux.HandleFunc("POST /api/emails/templates", a.CreateTemplateHandler)
	mux.HandleFunc("GET /api/emails/templates/{id}", a.GetTemplateHandler)
	mux.HandleFunc("PUT /api/emails/templates/{id}", a.UpdateTemplateHandler)
	mux.HandleFunc("DELETE /api/emails/templates/{id}", a.DeleteTemplateHandler)
	mux.HandleFunc("POST /api/emails/send/{candidate_id}", a.SendEmailHandler)
	mux.HandleFunc("POST /api/emails/send-bulk", a.BulkSendHandler)
	mux.HandleFunc("GET /api/emails/campaigns", a.ListCampaignsHandler)
	mux.HandleFunc("GET /api/emails/campaigns/{id}", a.GetCampaignHandler)

	// Tracking (called by mail clients and the provider)
	mux.HandleFunc("GET /api/track/open/{token}", a.TrackOpenHandler)
	mux.HandleFunc("POST /api/track/sendgrid", a.SendGridWebhookHandler)
	mux.HandleFunc("POST /api/track/reply", a.InboundReplyHandler)

	mux.HandleFunc("GET /api/events/ws", a.EventsStreamHandler)

	return loggingMiddleware(a.logger, a.recoverMiddleware(a.adminMiddleware(mux)))
}
