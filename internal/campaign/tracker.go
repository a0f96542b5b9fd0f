// Package campaign records outreach sends and the engagement signals that follow them,
// moving each candidate through the status lifecycle as it goes.
package campaign

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cv-status/internal/apperr"
	"cv-status/internal/events"
	"cv-status/internal/mail"
	"cv-status/internal/notify"
	"cv-status/internal/status"
	"cv-status/internal/storage"
)

const tokenBytes = 32

// NewToken returns an unguessable URL-safe tracking token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate tracking token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type Tracker struct {
	db          *storage.DB
	transport   mail.Transport
	publisher   notify.Publisher
	baseURL     string
	concurrency int
	logger      *slog.Logger
}

// NewTracker wires the tracker. transport and publisher may be nil when the process only
// records signals (for example the CLI).
func NewTracker(db *storage.DB, transport mail.Transport, publisher notify.Publisher, baseURL string, concurrency int, logger *slog.Logger) *Tracker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Tracker{
		db:          db,
		transport:   transport,
		publisher:   publisher,
		baseURL:     baseURL,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SendRecord describes a message the transport has accepted.
type SendRecord struct {
	CandidateID string
	TemplateID  string
	Subject     string
	HTML        string
	Text        string
	Token       string // generated when empty
	MessageID   string
}

// RecordSend stores the campaign, its sent event and the SENT transition in one transaction.
func (t *Tracker) RecordSend(ctx context.Context, rec SendRecord) (*storage.Campaign, error) {
	if rec.Token == "" {
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		rec.Token = token
	}
	c := &storage.Campaign{
		CandidateID:        rec.CandidateID,
		TemplateID:         rec.TemplateID,
		RenderedSubject:    rec.Subject,
		RenderedHTML:       rec.HTML,
		RenderedText:       rec.Text,
		TrackingToken:      rec.Token,
		TransportMessageID: rec.MessageID,
	}

	var out status.Outcome
	err := t.db.WithTx(ctx, func(tx *storage.Tx) error {
		if _, err := tx.GetCandidate(ctx, rec.CandidateID); err != nil {
			return err
		}
		if err := tx.InsertCampaign(ctx, c); err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, &storage.EmailEvent{
			CampaignID:  c.ID,
			CandidateID: c.CandidateID,
			Kind:        storage.EventSent,
			RawPayload:  rawJSON(map[string]string{"message_id": rec.MessageID}),
		}); err != nil {
			return err
		}
		var err error
		out, err = tx.ApplySignal(ctx, c.CandidateID, status.SigSent)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("campaign recorded", "campaign_id", c.ID, "candidate_id", c.CandidateID, "status", out.Next)
	t.publish(notify.Notification{Type: "sent", CandidateID: c.CandidateID, CampaignID: c.ID, Status: string(out.Next)})
	return c, nil
}

// OpenMeta is what the pixel request tells us about the reader.
type OpenMeta struct {
	IP        string
	UserAgent string
	Raw       string
}

// RecordOpen counts one open of the campaign carrying token. Every open is counted;
// only the first one moves the candidate to EMAIL_OPENED.
func (t *Tracker) RecordOpen(ctx context.Context, token string, meta OpenMeta) error {
	var camp *storage.Campaign
	var out status.Outcome
	err := t.db.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		if camp, err = tx.GetCampaignByToken(ctx, token); err != nil {
			return err
		}
		camp, out, err = t.applyOpen(ctx, tx, camp, meta)
		return err
	})
	if err != nil {
		return err
	}
	t.afterOpen(camp, out)
	return nil
}

func (t *Tracker) applyOpen(ctx context.Context, tx *storage.Tx, camp *storage.Campaign, meta OpenMeta) (*storage.Campaign, status.Outcome, error) {
	updated, err := tx.IncrementOpen(ctx, camp.ID)
	if err != nil {
		return nil, status.Outcome{}, err
	}
	if err := tx.InsertEvent(ctx, &storage.EmailEvent{
		CampaignID:  camp.ID,
		CandidateID: camp.CandidateID,
		Kind:        storage.EventOpened,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		RawPayload:  meta.Raw,
	}); err != nil {
		return nil, status.Outcome{}, err
	}
	out, err := tx.ApplySignal(ctx, camp.CandidateID, status.SigOpened)
	if err != nil {
		return nil, status.Outcome{}, err
	}
	return updated, out, nil
}

func (t *Tracker) afterOpen(camp *storage.Campaign, out status.Outcome) {
	if out.OutOfOrder {
		t.logger.Warn("open before send",
			"error", apperr.OutOfOrderSignal(camp.CandidateID, string(out.Next), string(status.SignalOpened)))
	}
	t.logger.Debug("open recorded", "campaign_id", camp.ID, "open_count", camp.OpenCount)
	t.publish(notify.Notification{Type: "opened", CandidateID: camp.CandidateID, CampaignID: camp.ID, Status: string(out.Next)})
}

// ReplyResult reports how a reply was correlated.
type ReplyResult struct {
	CandidateID string        `json:"candidate_id"`
	CampaignID  string        `json:"campaign_id,omitempty"`
	Status      status.Status `json:"status"`
	Changed     bool          `json:"changed"`
	OutOfOrder  bool          `json:"out_of_order"`
}

// RecordReply correlates a reply by sender address. Exactly one candidate must match;
// otherwise the reply is kept as an unmatched audit event and AMBIGUOUS_OR_NOT_FOUND is
// returned. A reply from a candidate that was never emailed is noted but does not move
// the status.
func (t *Tracker) RecordReply(ctx context.Context, senderEmail string, reply events.InboundReply) (*ReplyResult, error) {
	payload := rawJSON(reply)
	matches, err := t.db.FindCandidatesByEmail(ctx, senderEmail)
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		if err := t.db.InsertEvent(ctx, &storage.EmailEvent{Kind: storage.EventReplied, RawPayload: payload}); err != nil {
			return nil, err
		}
		aerr := apperr.AmbiguousOrNotFound(senderEmail, len(matches))
		t.logger.Warn("reply not correlated", "sender", senderEmail, "matches", len(matches))
		return nil, aerr
	}
	cand := matches[0]

	res := &ReplyResult{CandidateID: cand.ID}
	err = t.db.WithTx(ctx, func(tx *storage.Tx) error {
		camp, err := tx.LatestCampaignForCandidate(ctx, cand.ID)
		switch {
		case err == nil:
			res.CampaignID = camp.ID
			if _, err := tx.MarkReplied(ctx, camp.ID); err != nil {
				return err
			}
		case !apperr.Is(err, apperr.CodeNotFound):
			return err
		}

		if err := tx.InsertEvent(ctx, &storage.EmailEvent{
			CampaignID:  res.CampaignID,
			CandidateID: cand.ID,
			Kind:        storage.EventReplied,
			RawPayload:  payload,
		}); err != nil {
			return err
		}

		out, err := tx.ApplySignal(ctx, cand.ID, status.SigReplied)
		if err != nil {
			return err
		}
		res.Status, res.Changed, res.OutOfOrder = out.Next, out.Changed, out.OutOfOrder
		if out.OutOfOrder {
			return tx.AppendNote(ctx, cand.ID, fmt.Sprintf("reply received before any tracked email: %q", reply.Subject))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.OutOfOrder {
		t.logger.Warn("reply before send",
			"error", apperr.OutOfOrderSignal(cand.ID, string(res.Status), string(status.SignalReplied)))
	}
	t.logger.Info("reply recorded", "candidate_id", cand.ID, "campaign_id", res.CampaignID, "status", res.Status)
	t.publish(notify.Notification{Type: "replied", CandidateID: cand.ID, CampaignID: res.CampaignID, Status: string(res.Status)})
	return res, nil
}

// RecordExternalEvent applies a provider webhook event. The campaign is found by tracking
// token, then by provider message id. Kinds the tracker does not act on are ignored.
func (t *Tracker) RecordExternalEvent(ctx context.Context, ev events.Event) error {
	if ev.Kind == events.KindUnknown {
		return nil
	}

	var camp *storage.Campaign
	var out status.Outcome
	err := t.db.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		if camp, err = findCampaign(ctx, tx, ev); err != nil {
			return err
		}

		switch ev.Kind {
		case events.KindOpened:
			camp, out, err = t.applyOpen(ctx, tx, camp, OpenMeta{IP: ev.IP, UserAgent: ev.UserAgent, Raw: string(ev.Raw)})
			return err
		case events.KindBounced:
			set, err := tx.MarkBounced(ctx, camp.ID)
			if err != nil {
				return err
			}
			if set {
				if err := tx.AppendNote(ctx, camp.CandidateID, "email bounced: "+orDefault(ev.Reason, ev.RawKind)); err != nil {
					return err
				}
			}
		case events.KindUnsubscribed:
			set, err := tx.MarkUnsubscribed(ctx, camp.ID)
			if err != nil {
				return err
			}
			if set {
				if err := tx.AppendNote(ctx, camp.CandidateID, "unsubscribed ("+ev.RawKind+")"); err != nil {
					return err
				}
			}
		}
		return tx.InsertEvent(ctx, auditEvent(camp, ev))
	})
	if err != nil {
		return err
	}

	switch ev.Kind {
	case events.KindOpened:
		t.afterOpen(camp, out)
	case events.KindBounced, events.KindUnsubscribed:
		t.logger.Info("delivery event recorded", "kind", ev.Kind, "campaign_id", camp.ID)
		t.publish(notify.Notification{Type: string(ev.Kind), CandidateID: camp.CandidateID, CampaignID: camp.ID})
	}
	return nil
}

func findCampaign(ctx context.Context, tx *storage.Tx, ev events.Event) (*storage.Campaign, error) {
	if ev.Token != "" {
		camp, err := tx.GetCampaignByToken(ctx, ev.Token)
		if err == nil || !apperr.Is(err, apperr.CodeNotFound) || ev.MessageID == "" {
			return camp, err
		}
	}
	if ev.MessageID != "" {
		return tx.GetCampaignByMessageID(ctx, ev.MessageID)
	}
	return nil, apperr.NotFound("campaign", ev.Recipient)
}

// auditEvent builds the event row for kinds other than opened, which applyOpen writes.
func auditEvent(camp *storage.Campaign, ev events.Event) *storage.EmailEvent {
	return &storage.EmailEvent{
		CampaignID:  camp.ID,
		CandidateID: camp.CandidateID,
		Kind:        storage.EventKind(ev.Kind),
		IPAddress:   ev.IP,
		UserAgent:   ev.UserAgent,
		URL:         ev.URL,
		RawPayload:  string(ev.Raw),
		OccurredAt:  ev.Timestamp,
	}
}

func (t *Tracker) publish(n notify.Notification) {
	if t.publisher == nil {
		return
	}
	n.At = time.Now().UTC()
	t.publisher.Publish(n)
}

func rawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
