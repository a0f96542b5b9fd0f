package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/apperr"
	"cv-status/internal/campaign"
	"cv-status/internal/config"
	"cv-status/internal/cv"
	"cv-status/internal/drive"
	"cv-status/internal/events"
	"cv-status/internal/ingest"
	"cv-status/internal/mail"
	"cv-status/internal/notify"
	"cv-status/internal/status"
	"cv-status/internal/storage"
	"cv-status/internal/template"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeTransport) Send(ctx context.Context, msg mail.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("sg-%d", len(f.sent)), nil
}

func (f *fakeTransport) last() mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type testServer struct {
	srv       *httptest.Server
	db        *storage.DB
	folder    string
	transport *fakeTransport
	adminKey  string
}

func newTestServer(t *testing.T, adminKey string) *testServer {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.NewDB("sqlite://" + filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	folder := filepath.Join(dir, "cvs")
	require.NoError(t, os.MkdirAll(folder, 0755))

	logger := config.DiscardLogger()
	orch := ingest.NewOrchestrator(db, drive.NewDir(""), cv.NewParser(""), cv.NewBasicExtractor(), logger, 2)
	jobs := ingest.NewJobRunner(db, orch, 4, logger)
	ctx, cancel := context.WithCancel(context.Background())
	jobs.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-jobs.Done()
	})

	tr := &fakeTransport{}
	hub := notify.NewHub(logger)
	tracker := campaign.NewTracker(db, tr, hub, "https://cv.example.com", 2, logger)

	a := NewAPI(Options{
		DB:            db,
		Orchestrator:  orch,
		Jobs:          jobs,
		Tracker:       tracker,
		Gateway:       events.NewGateway(tracker, logger),
		Hub:           hub,
		DefaultFolder: folder,
		AdminKey:      adminKey,
		BaseURL:       "https://cv.example.com",
		Logger:        logger,
	})
	srv := httptest.NewServer(NewRouter(a))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, db: db, folder: folder, transport: tr, adminKey: adminKey}
}

func (s *testServer) writeCV(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.folder, name), []byte(content), 0644))
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.adminKey != "" {
		req.Header.Set(AdminKeyHeader, s.adminKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func templateContext() template.SendContext {
	return template.SendContext{SenderName: "Grace", Role: "Go engineer", Company: "Acme"}
}

const adaCV = "Ada Lovelace\nada@example.com\n7 years building Go and PostgreSQL services\n"
const bobCV = "Bob Stone\nbob@example.com\nPython and AWS\n"

func (s *testServer) syncAll(t *testing.T) ingest.SyncReport {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/candidates/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[ingest.SyncReport](t, resp)
}

func (s *testServer) candidateByEmail(t *testing.T, email string) *storage.Candidate {
	t.Helper()
	cs, err := s.db.FindCandidatesByEmail(context.Background(), email)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	return cs[0]
}

func (s *testServer) createTemplate(t *testing.T) storage.EmailTemplate {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/emails/templates", TemplateRequest{
		Name:     "intro",
		Subject:  "Hi {{first_name}}",
		BodyHTML: "<html><body><p>We are hiring a {{ role }}.</p></body></html>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[storage.EmailTemplate](t, resp)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Zero(t, health.Subscribers)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.srv.URL, "http")+"/api/events/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool {
		return decode[HealthResponse](t, s.do(t, http.MethodGet, "/health", nil)).Subscribers == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSyncAndListCandidates(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.writeCV(t, "bob.txt", bobCV)
	s.writeCV(t, "blank.txt", "   ")

	report := s.syncAll(t)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)

	report = s.syncAll(t)
	assert.Equal(t, 2, report.Skipped)

	resp := s.do(t, http.MethodGet, "/api/candidates?status=PENDING&skill=go", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cands := decode[[]storage.Candidate](t, resp)
	require.Len(t, cands, 1)
	assert.Equal(t, "Ada Lovelace", cands[0].Name)

	resp = s.do(t, http.MethodGet, "/api/candidates?min_years=10", nil)
	assert.Empty(t, decode[[]storage.Candidate](t, resp))

	resp = s.do(t, http.MethodGet, "/api/candidates/"+cands[0].ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[map[string]any](t, resp)
	assert.Equal(t, "ada@example.com", detail["email"])
	assert.Equal(t, []any{}, detail["campaigns"])
}

func TestErrorsUseCodedBody(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   apperr.Code
	}{
		{"unknown candidate", http.MethodGet, "/api/candidates/nope", nil, 404, apperr.CodeNotFound},
		{"bad status filter", http.MethodGet, "/api/candidates?status=HIRED", nil, 400, apperr.CodeValidation},
		{"lower-case status filter", http.MethodGet, "/api/candidates?status=pending", nil, 400, apperr.CodeValidation},
		{"bad years", http.MethodGet, "/api/candidates?min_years=abc", nil, 400, apperr.CodeValidation},
		{"unknown placeholder", http.MethodPost, "/api/emails/templates",
			TemplateRequest{Name: "bad", Subject: "Hi {{unknown_field}}", BodyHTML: "<p>x</p>"}, 400, apperr.CodeValidation},
		{"unknown template", http.MethodPost, "/api/emails/send/x", SendEmailRequest{TemplateID: "missing"}, 404, apperr.CodeNotFound},
		{"unknown job", http.MethodGet, "/api/sync/jobs/nope", nil, 404, apperr.CodeNotFound},
		{"empty bulk", http.MethodPost, "/api/emails/send-bulk", campaign.BulkSendRequest{}, 400, apperr.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[ErrorBody](t, resp)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestSendOpenReplyFlow(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.syncAll(t)
	ada := s.candidateByEmail(t, "ada@example.com")
	tmpl := s.createTemplate(t)

	resp := s.do(t, http.MethodPost, "/api/emails/send/"+ada.ID, SendEmailRequest{
		TemplateID: tmpl.ID,
		Context:    templateContext(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	camp := decode[storage.Campaign](t, resp)
	assert.Equal(t, "Hi Ada", camp.RenderedSubject)
	assert.Contains(t, s.transport.last().HTML, "/api/track/open/"+camp.TrackingToken+".gif")

	for range 2 {
		resp = s.do(t, http.MethodGet, "/api/track/open/"+camp.TrackingToken+".gif", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")
		img, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, transparentGIF, img)
	}

	stored, err := s.db.GetCampaign(context.Background(), camp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.OpenCount)
	assert.Equal(t, status.EmailOpened, s.candidateByEmail(t, "ada@example.com").Status)

	form := url.Values{"from": {"Ada Lovelace <ADA@example.com>"}, "text": {"Sounds interesting!"}}
	resp, err = http.PostForm(s.srv.URL+"/api/track/reply", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decode[ReplyResponse](t, resp)
	assert.True(t, reply.Matched)
	assert.Equal(t, status.Replied, reply.Result.Status)

	resp = s.do(t, http.MethodGet, "/api/emails/campaigns/"+camp.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[CampaignDetail](t, resp)
	var kinds []storage.EventKind
	for _, e := range detail.Events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []storage.EventKind{storage.EventSent, storage.EventOpened, storage.EventOpened, storage.EventReplied}, kinds)
}

func TestTrackOpen_UnknownTokenStillServesPixel(t *testing.T) {
	s := newTestServer(t, "")
	for _, path := range []string{"/api/track/open/nope.gif", "/api/track/open/nope"} {
		resp := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	}
}

func TestInboundReply_UnknownSenderIsAcknowledged(t *testing.T) {
	s := newTestServer(t, "")
	resp, err := http.PostForm(s.srv.URL+"/api/track/reply", url.Values{"from": {"stranger@example.com"}, "text": {"hi"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[ReplyResponse](t, resp).Matched)

	evs, err := s.db.ListEvents(context.Background(), storage.EventFilter{Kind: storage.EventReplied})
	require.NoError(t, err)
	assert.Len(t, evs, 1)

	resp, err = http.PostForm(s.srv.URL+"/api/track/reply", url.Values{"text": {"no sender"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendGridWebhook(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.syncAll(t)
	ada := s.candidateByEmail(t, "ada@example.com")
	tmpl := s.createTemplate(t)
	resp := s.do(t, http.MethodPost, "/api/emails/send/"+ada.ID, SendEmailRequest{TemplateID: tmpl.ID, Context: templateContext()})
	camp := decode[storage.Campaign](t, resp)

	body := fmt.Sprintf(`[
		{"event":"delivered","email":"ada@example.com","timestamp":1700000000,"tracking_token":%q},
		{"event":"bounce","email":"ada@example.com","timestamp":1700000001,"tracking_token":%q,"reason":"550 no such user"},
		{"event":"processed","email":"ada@example.com","timestamp":1700000002},
		{"event":"open","email":"other@example.com","timestamp":1700000003,"tracking_token":"unknown"}
	]`, camp.TrackingToken, camp.TrackingToken)
	resp, err := http.Post(s.srv.URL+"/api/track/sendgrid", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[events.BatchResult](t, resp)
	assert.Equal(t, 4, res.Received)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Ignored)

	stored, err := s.db.GetCampaign(context.Background(), camp.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.BouncedAt)
	assert.Equal(t, status.Emailed, s.candidateByEmail(t, "ada@example.com").Status)

	resp, err = http.Post(s.srv.URL+"/api/track/sendgrid", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBulkSend(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.writeCV(t, "bob.txt", bobCV)
	s.syncAll(t)
	ada := s.candidateByEmail(t, "ada@example.com")
	bob := s.candidateByEmail(t, "bob@example.com")
	tmpl := s.createTemplate(t)

	resp := s.do(t, http.MethodPost, "/api/emails/send-bulk", campaign.BulkSendRequest{
		CandidateIDs: []string{ada.ID, "missing", bob.ID},
		TemplateID:   tmpl.ID,
		Context:      templateContext(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[BulkSendResponse](t, resp)
	assert.Equal(t, 2, out.Sent)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Results, 3)
	assert.Equal(t, apperr.CodeNotFound, out.Results[1].ErrorCode)

	resp = s.do(t, http.MethodGet, "/api/emails/campaigns?limit=10", nil)
	assert.Len(t, decode[[]storage.Campaign](t, resp), 2)
}

func TestManualStatusAndDelete(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.syncAll(t)
	ada := s.candidateByEmail(t, "ada@example.com")

	resp := s.do(t, http.MethodPatch, "/api/candidates/"+ada.ID, StatusUpdate{Status: "interested"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPatch, "/api/candidates/"+ada.ID, StatusUpdate{Status: "INTERESTED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, status.Interested, decode[storage.Candidate](t, resp).Status)

	resp = s.do(t, http.MethodPatch, "/api/candidates/"+ada.ID, StatusUpdate{Status: "HIRED"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/candidates/"+ada.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodDelete, "/api/candidates/"+ada.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestServer(t, "")
	tmpl := s.createTemplate(t)
	assert.True(t, tmpl.IsActive)

	inactive := false
	resp := s.do(t, http.MethodPut, "/api/emails/templates/"+tmpl.ID, TemplateRequest{
		Name: "intro", Subject: "Hello {{candidate_name}}", BodyMarkdown: "We are hiring a **{{role}}**.", IsActive: &inactive,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[storage.EmailTemplate](t, resp)
	assert.Contains(t, updated.BodyHTML, "<strong>{{role}}</strong>")
	assert.False(t, updated.IsActive)

	resp = s.do(t, http.MethodGet, "/api/emails/templates?active=true", nil)
	assert.Empty(t, decode[[]storage.EmailTemplate](t, resp))

	resp = s.do(t, http.MethodDelete, "/api/emails/templates/"+tmpl.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/emails/templates/"+tmpl.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAsyncSyncJob(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)

	resp := s.do(t, http.MethodPost, "/api/candidates/sync", SyncRequest{Async: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	job := decode[storage.SyncJob](t, resp)

	var got SyncJobResponse
	require.Eventually(t, func() bool {
		resp := s.do(t, http.MethodGet, "/api/sync/jobs/"+job.ID, nil)
		got = decode[SyncJobResponse](t, resp)
		return got.Status == storage.JobCompleted
	}, 5*time.Second, 20*time.Millisecond)

	var report ingest.SyncReport
	require.NoError(t, json.Unmarshal(got.Report, &report))
	assert.Equal(t, 1, report.Created)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, "")

	upload := func(name, content string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		resp, err := http.Post(s.srv.URL+"/api/candidates/upload", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := upload("ada.txt", adaCV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[ingest.SyncItem](t, resp)

	resp = upload("ada-copy.txt", adaCV)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[ingest.SyncItem](t, resp)
	assert.Equal(t, ingest.OutcomeSkipped, again.Outcome)
	assert.Equal(t, first.CandidateID, again.CandidateID)

	resp = upload("cv.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload("empty.txt", "\n\n")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, apperr.CodeExtractionFailed, decode[ingest.SyncItem](t, resp).ErrorCode)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, "")
	s.writeCV(t, "ada.txt", adaCV)
	s.syncAll(t)

	resp := s.do(t, http.MethodGet, "/api/candidates/export.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("PK")))
}

func TestAdminKey(t *testing.T) {
	s := newTestServer(t, "s3cret")

	resp, err := http.Get(s.srv.URL + "/api/candidates")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperr.CodePermissionDenied, decode[ErrorBody](t, resp).Error.Code)

	resp = s.do(t, http.MethodGet, "/api/candidates", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{"/api/track/open/abc.gif", "/health"} {
		resp, err := http.Get(s.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
