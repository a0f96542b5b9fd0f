package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	netmail "net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"cv-status/internal/apperr"
)

func TestPixelURL(t *testing.T) {
	assert.Equal(t, "https://x.io/api/track/open/tok.gif", PixelURL("https://x.io/", "tok"))
}

func TestInjectPixel(t *testing.T) {
	img := `<img src="p" width="1" height="1" alt="" style="display:none;" />`
	assert.Equal(t, "<html><body>Hi"+img+"</BODY></html>", InjectPixel("<html><body>Hi</BODY></html>", "p"))
	assert.Equal(t, "<p>Hi</p>"+img, InjectPixel("<p>Hi</p>", "p"))
}

func TestSendGrid_Send(t *testing.T) {
	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &body))
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg := NewSendGrid("key", "jobs@acme.io", "Acme Talent", srv.URL, srv.Client())
	id, err := sg.Send(context.Background(), Message{
		To: "ada@example.com", ToName: "Ada", Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi", TrackingToken: "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-123", id)
	assert.Equal(t, "Bearer key", auth)

	personalizations := body["personalizations"].([]any)
	args := personalizations[0].(map[string]any)["custom_args"].(map[string]any)
	assert.Equal(t, "tok-1", args["tracking_token"])
	tracking := body["tracking_settings"].(map[string]any)
	assert.Equal(t, false, tracking["open_tracking"].(map[string]any)["enable"])
}

func TestSendGrid_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()
	sg := NewSendGrid("key", "jobs@acme.io", "", srv.URL, srv.Client())

	_, err := sg.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", HTML: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeTransport))
	assert.Contains(t, err.Error(), "bad from")

	_, err = sg.Send(context.Background(), Message{To: "not-an-address", Subject: "Hi"})
	assert.True(t, apperr.Is(err, apperr.CodeTransport))
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME("jobs@acme.io", "Acme", Message{
		To: "ada@example.com", ToName: "Ada", Subject: "Café role", HTML: "<p>Hi</p>", Text: "Hi", TrackingToken: "tok",
	})
	require.NoError(t, err)

	m, err := netmail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "tok", m.Header.Get(TrackingHeader))
	assert.Contains(t, m.Header.Get("Content-Type"), "multipart/alternative")
	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Café role", subject)

	b, _ := io.ReadAll(m.Body)
	assert.Contains(t, string(b), "text/html")
	assert.Contains(t, string(b), "<p>Hi</p>")
}

func TestGmail_Send(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		var msg gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		raw = msg.Raw
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gm-1"}`))
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	g := NewGmailWithService(svc, "me@acme.io", "Me")

	id, err := g.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", HTML: "<p>Hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "gm-1", id)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: <ada@example.com>")
}
