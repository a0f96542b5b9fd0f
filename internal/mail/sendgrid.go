package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"cv-status/internal/apperr"
)

const sendEndpoint = "/v3/mail/send"

// SendGrid sends through the v3 Mail Send API.
type SendGrid struct {
	apiKey    string
	fromEmail string
	fromName  string
	host      string
	client    *rest.Client
}

// NewSendGrid builds a transport. httpClient may be nil; host may be empty for the
// public API.
func NewSendGrid(apiKey, fromEmail, fromName, host string, httpClient *http.Client) *SendGrid {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SendGrid{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		host:      host,
		client:    &rest.Client{HTTPClient: httpClient},
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", apperr.Transport(err)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))
	if msg.TrackingToken != "" {
		p.SetCustomArg("tracking_token", msg.TrackingToken)
	}
	m.AddPersonalizations(p)

	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	m.AddContent(sgmail.NewContent("text/html", msg.HTML))

	// Opens come from our own pixel; SendGrid's would double count them.
	ts := sgmail.NewTrackingSettings()
	ts.SetOpenTracking(sgmail.NewOpenTrackingSetting().SetEnable(false))
	ts.SetClickTracking(sgmail.NewClickTrackingSetting().SetEnable(true).SetEnableText(false))
	m.SetTrackingSettings(ts)

	req := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(m)

	resp, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return "", apperr.Transport(err)
	}
	if resp.StatusCode >= 300 {
		return "", apperr.Transport(fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body))
	}
	return headerValue(resp.Headers, "X-Message-Id"), nil
}

func headerValue(h map[string][]string, key string) string {
	return http.Header(h).Get(key)
}
