package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cv-status/internal/apperr"
	"cv-status/internal/campaign"
	"cv-status/internal/events"
)

// transparentGIF is a 1x1 transparent GIF89a.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// pixelTimeout bounds the open write; the image is served regardless.
const pixelTimeout = 5 * time.Second

// ReplyResponse reports how an inbound reply was correlated.
type ReplyResponse struct {
	Matched bool                  `json:"matched"`
	Result  *campaign.ReplyResult `json:"result,omitempty"`
	Reason  string                `json:"reason,omitempty"`
}

// TrackOpenHandler serves the tracking pixel
// @Summary Tracking pixel
// @Description Always returns a 1x1 GIF. Unknown tokens and storage failures are logged, never surfaced.
// @Tags tracking
// @Produce image/gif
// @Param token path string true "Tracking token (.gif suffix optional)"
// @Success 200 {file} file
// @Router /track/open/{token} [get]
func (a *API) TrackOpenHandler(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSuffix(r.PathValue("token"), ".gif")

	if token != "" {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), pixelTimeout)
		err := a.tracker.RecordOpen(ctx, token, campaign.OpenMeta{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		})
		cancel()
		switch {
		case err == nil:
		case apperr.Is(err, apperr.CodeNotFound):
			a.logger.Debug("pixel for unknown token", "token", token)
		default:
			a.logger.Warn("failed to record open", "error", err)
		}
	}

	h := w.Header()
	h.Set("Content-Type", "image/gif")
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentGIF)
}

// SendGridWebhookHandler receives SendGrid event notifications
// @Summary SendGrid event webhook
// @Description Accepts the SendGrid event array. One bad event never fails the batch.
// @Tags tracking
// @Accept json
// @Produce json
// @Success 200 {object} events.BatchResult
// @Failure 400 {object} ErrorBody
// @Router /track/sendgrid [post]
func (a *API) SendGridWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		a.writeError(w, r, apperr.Validationf("failed to read body: %v", err))
		return
	}
	res, err := a.gateway.HandleSendGrid(r.Context(), body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

// InboundReplyHandler receives Inbound Parse posts
// @Summary Inbound reply
// @Description Correlates the sender with exactly one candidate by email. Unmatched replies are audited and acknowledged so the provider does not retry them.
// @Tags tracking
// @Accept multipart/form-data
// @Produce json
// @Param from formData string true "Sender, e.g. Ada <ada@example.com>"
// @Param text formData string false "Plain text body"
// @Param html formData string false "HTML body"
// @Success 200 {object} ReplyResponse
// @Failure 400 {object} ErrorBody
// @Router /track/reply [post]
func (a *API) InboundReplyHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxWebhookBody); err != nil {
			a.writeError(w, r, apperr.Validationf("invalid multipart body: %v", err))
			return
		}
	} else if err := r.ParseForm(); err != nil {
		a.writeError(w, r, apperr.Validationf("invalid form body: %v", err))
		return
	}

	reply, err := events.ParseInboundReply(r.PostForm)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.tracker.RecordReply(r.Context(), reply.From, reply)
	switch {
	case err == nil:
		a.writeJSON(w, http.StatusOK, ReplyResponse{Matched: true, Result: res})
	case apperr.Is(err, apperr.CodeAmbiguousOrNotFound):
		a.writeJSON(w, http.StatusOK, ReplyResponse{Matched: false, Reason: err.Error()})
	default:
		a.writeError(w, r, err)
	}
}

// EventsStreamHandler upgrades to a websocket of status notifications
// @Summary Notification stream
// @Description Websocket; each message is a JSON notification.
// @Tags events
// @Success 101
// @Router /events/ws [get]
func (a *API) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if a.hub == nil {
		a.writeError(w, r, apperr.NotFound("endpoint", r.URL.Path))
		return
	}
	a.hub.ServeWS(w, r)
}

// clientIP prefers the first X-Forwarded-For hop since the service usually runs behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// healthHandler reports liveness and whether the database answers.
func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	body := HealthResponse{Status: "healthy"}
	code := http.StatusOK
	if err := a.db.GetConnection().PingContext(ctx); err != nil {
		body = HealthResponse{Status: "unhealthy", Database: err.Error()}
		code = http.StatusServiceUnavailable
	}
	if a.hub != nil {
		body.Subscribers = a.hub.Subscribers()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthResponse is the /health body. Subscribers counts open event streams.
type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database,omitempty"`
	Subscribers int    `json:"event_subscribers"`
}
