package campaign

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"cv-status/internal/apperr"
	"cv-status/internal/mail"
	"cv-status/internal/storage"
	"cv-status/internal/template"
)

// SendRequest sends one template to one candidate.
type SendRequest struct {
	CandidateID string               `json:"candidate_id"`
	TemplateID  string               `json:"template_id"`
	Context     template.SendContext `json:"context"`
}

// BulkSendRequest sends one template to many candidates.
type BulkSendRequest struct {
	CandidateIDs []string             `json:"candidate_ids"`
	TemplateID   string               `json:"template_id"`
	Context      template.SendContext `json:"context"`
}

// SendResult is the per-candidate outcome of a bulk send.
type SendResult struct {
	CandidateID string      `json:"candidate_id"`
	CampaignID  string      `json:"campaign_id,omitempty"`
	OK          bool        `json:"ok"`
	Error       string      `json:"error,omitempty"`
	ErrorCode   apperr.Code `json:"error_code,omitempty"`
}

// SendOne renders, delivers and records a single message. Nothing is stored unless the
// transport accepted the message.
func (t *Tracker) SendOne(ctx context.Context, req SendRequest) (*storage.Campaign, error) {
	if t.transport == nil {
		return nil, apperr.Transport(nil)
	}
	tmpl, err := t.db.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	return t.send(ctx, tmpl, req.CandidateID, req.Context)
}

func (t *Tracker) send(ctx context.Context, tmpl *storage.EmailTemplate, candidateID string, sc template.SendContext) (*storage.Campaign, error) {
	if !tmpl.IsActive {
		return nil, apperr.Validationf("template %q is inactive", tmpl.Name)
	}
	cand, err := t.db.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cand.Email) == "" {
		return nil, apperr.Validationf("candidate %s has no email address", cand.ID)
	}

	rendered, err := template.Render(tmpl, template.VarsFor(cand, sc))
	if err != nil {
		return nil, err
	}

	// The token exists before the row so the pixel and provider metadata can carry it.
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	html := mail.InjectPixel(rendered.HTML, mail.PixelURL(t.baseURL, token))

	messageID, err := t.transport.Send(ctx, mail.Message{
		To:            cand.Email,
		ToName:        cand.Name,
		Subject:       rendered.Subject,
		HTML:          html,
		Text:          rendered.Text,
		TrackingToken: token,
	})
	if err != nil {
		t.logger.Warn("send failed", "candidate_id", cand.ID, "template", tmpl.Name, "error", err)
		if !apperr.Is(err, apperr.CodeTransport) {
			err = apperr.Transport(err)
		}
		return nil, err
	}

	camp, err := t.RecordSend(ctx, SendRecord{
		CandidateID: cand.ID,
		TemplateID:  tmpl.ID,
		Subject:     rendered.Subject,
		HTML:        html,
		Text:        rendered.Text,
		Token:       token,
		MessageID:   messageID,
	})
	if err != nil {
		t.logger.Error("email sent but campaign not recorded",
			"candidate_id", cand.ID, "message_id", messageID, "error", err)
		return nil, err
	}
	return camp, nil
}

// BulkSend sends to every candidate with bounded concurrency. One failure never stops the
// others; results follow the input order. Candidates not yet started when ctx is
// cancelled get ctx.Err() as their result.
func (t *Tracker) BulkSend(ctx context.Context, req BulkSendRequest) ([]SendResult, error) {
	if len(req.CandidateIDs) == 0 {
		return nil, apperr.Validation("candidate_ids is required")
	}
	if t.transport == nil {
		return nil, apperr.Transport(nil)
	}
	// Cancellation is reported per candidate, so the lookup itself ignores it.
	tmpl, err := t.db.GetTemplate(context.WithoutCancel(ctx), req.TemplateID)
	if err != nil {
		return nil, err
	}

	results := make([]SendResult, len(req.CandidateIDs))
	g := new(errgroup.Group)
	g.SetLimit(t.concurrency)
	for i, id := range req.CandidateIDs {
		results[i] = SendResult{CandidateID: id}
		if err := ctx.Err(); err != nil {
			results[i].fail(err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].fail(err)
				return nil
			}
			camp, err := t.send(ctx, tmpl, id, req.Context)
			if err != nil {
				results[i].fail(err)
				return nil
			}
			results[i].OK = true
			results[i].CampaignID = camp.ID
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, r := range results {
		if r.OK {
			sent++
		}
	}
	t.logger.Info("bulk send finished", "template", tmpl.Name, "requested", len(results), "sent", sent)
	return results, nil
}

func (r *SendResult) fail(err error) {
	r.OK = false
	r.Error = err.Error()
	r.ErrorCode = apperr.CodeOf(err)
}
