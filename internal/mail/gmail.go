package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	netmail "net/mail"
	"net/textproto"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"cv-status/internal/apperr"
	"cv-status/internal/gauth"
)

// TrackingHeader carries the campaign token on Gmail sends.
const TrackingHeader = "X-CV-Tracking-Token"

// Gmail sends as the authorized user through the Gmail API.
type Gmail struct {
	service  *gmail.Service
	from     string
	fromName string
}

func NewGmail(ctx context.Context, creds gauth.Credentials, base *http.Client, from, fromName string) (*Gmail, error) {
	client, err := gauth.HTTPClient(ctx, creds, base, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}
	return NewGmailWithService(srv, from, fromName), nil
}

func NewGmailWithService(srv *gmail.Service, from, fromName string) *Gmail {
	return &Gmail{service: srv, from: from, fromName: fromName}
}

func (g *Gmail) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", apperr.Transport(err)
	}
	raw, err := buildMIME(g.from, g.fromName, msg)
	if err != nil {
		return "", apperr.Transport(err)
	}
	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", apperr.Transport(err)
	}
	return sent.Id, nil
}

// buildMIME renders a multipart/alternative message with text and HTML parts.
func buildMIME(from, fromName string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fromAddr := (&netmail.Address{Name: fromName, Address: from}).String()
	toAddr := (&netmail.Address{Name: msg.ToName, Address: msg.To}).String()

	fmt.Fprintf(&buf, "From: %s\r\n", fromAddr)
	fmt.Fprintf(&buf, "To: %s\r\n", toAddr)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	if msg.TrackingToken != "" {
		fmt.Fprintf(&buf, "%s: %s\r\n", TrackingHeader, msg.TrackingToken)
	}
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		if part.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
