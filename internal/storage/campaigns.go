package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"cv-status/internal/apperr"
)

const campaignColumns = `id, candidate_id, template_id, rendered_subject, rendered_html, rendered_text,
	tracking_token, transport_message_id, sent_at, open_count, first_opened_at, last_opened_at,
	replied_at, bounced_at, unsubscribed_at, created_at`

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a time-ordered identifier for campaigns and events. IDs minted in the
// same millisecond still sort in creation order.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}

// InsertCampaign stores a campaign with open_count zero. SentAt defaults to now.
func (q *queries) InsertCampaign(ctx context.Context, c *Campaign) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	now := q.nowMillis()
	sentAt := now
	if !c.SentAt.IsZero() {
		sentAt = c.SentAt.UnixMilli()
	}
	_, err := q.exec(ctx, `INSERT INTO email_campaigns (id, candidate_id, template_id, rendered_subject,
			rendered_html, rendered_text, tracking_token, transport_message_id, sent_at, open_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		c.ID, c.CandidateID, nullString(c.TemplateID), c.RenderedSubject, c.RenderedHTML, c.RenderedText,
		c.TrackingToken, c.TransportMessageID, sentAt, now)
	if isUniqueViolation(err) {
		return ErrUniqueConstraint
	}
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	c.SentAt = fromMillis(sentAt)
	c.CreatedAt = fromMillis(now)
	c.OpenCount = 0
	return nil
}

func (q *queries) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	return q.getCampaignWhere(ctx, "id = ?", id)
}

func (q *queries) GetCampaignByToken(ctx context.Context, token string) (*Campaign, error) {
	if token == "" {
		return nil, apperr.NotFound("campaign", "")
	}
	return q.getCampaignWhere(ctx, "tracking_token = ?", token)
}

func (q *queries) GetCampaignByMessageID(ctx context.Context, messageID string) (*Campaign, error) {
	if messageID == "" {
		return nil, apperr.NotFound("campaign", "")
	}
	return q.getCampaignWhere(ctx, "transport_message_id = ?", messageID)
}

// LatestCampaignForCandidate returns the most recent send to a candidate.
func (q *queries) LatestCampaignForCandidate(ctx context.Context, candidateID string) (*Campaign, error) {
	row := q.queryRow(ctx, `SELECT `+campaignColumns+` FROM email_campaigns
		WHERE candidate_id = ? ORDER BY sent_at DESC, id DESC LIMIT 1`, candidateID)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("campaign for candidate", candidateID)
	}
	return c, err
}

func (q *queries) getCampaignWhere(ctx context.Context, cond string, arg string) (*Campaign, error) {
	row := q.queryRow(ctx, `SELECT `+campaignColumns+` FROM email_campaigns WHERE `+cond, arg)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("campaign", arg)
	}
	return c, err
}

// ListCampaigns returns campaigns newest first.
func (q *queries) ListCampaigns(ctx context.Context, f CampaignFilter) ([]*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM email_campaigns`
	var args []any
	if f.CandidateID != "" {
		query += ` WHERE candidate_id = ?`
		args = append(args, f.CandidateID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	query += ` ORDER BY sent_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// IncrementOpen bumps the open counter in one statement so concurrent pixel hits never
// lose an increment. It returns the updated campaign.
func (q *queries) IncrementOpen(ctx context.Context, campaignID string) (*Campaign, error) {
	now := q.nowMillis()
	res, err := q.exec(ctx, `UPDATE email_campaigns
		SET open_count = open_count + 1,
		    first_opened_at = COALESCE(first_opened_at, ?),
		    last_opened_at = ?
		WHERE id = ?`, now, now, campaignID)
	if err != nil {
		return nil, fmt.Errorf("increment open: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("campaign", campaignID)
	}
	return q.GetCampaign(ctx, campaignID)
}

// MarkReplied sets replied_at if unset. It reports whether this call set it.
func (q *queries) MarkReplied(ctx context.Context, campaignID string) (bool, error) {
	return q.setOnce(ctx, campaignID, "replied_at")
}

// MarkBounced sets bounced_at if unset.
func (q *queries) MarkBounced(ctx context.Context, campaignID string) (bool, error) {
	return q.setOnce(ctx, campaignID, "bounced_at")
}

// MarkUnsubscribed sets unsubscribed_at if unset.
func (q *queries) MarkUnsubscribed(ctx context.Context, campaignID string) (bool, error) {
	return q.setOnce(ctx, campaignID, "unsubscribed_at")
}

// column is one of the fixed timestamp names above, never user input.
func (q *queries) setOnce(ctx context.Context, campaignID, column string) (bool, error) {
	res, err := q.exec(ctx, `UPDATE email_campaigns SET `+column+` = ? WHERE id = ? AND `+column+` IS NULL`,
		q.nowMillis(), campaignID)
	if err != nil {
		return false, fmt.Errorf("set %s: %w", column, err)
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return true, nil
	}
	var exists int
	err = q.queryRow(ctx, `SELECT 1 FROM email_campaigns WHERE id = ?`, campaignID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFound("campaign", campaignID)
	}
	return false, err
}

// CampaignStats aggregates engagement over all campaigns.
type CampaignStats struct {
	Sent         int `json:"sent"`
	Opened       int `json:"opened"`
	Replied      int `json:"replied"`
	Bounced      int `json:"bounced"`
	Unsubscribed int `json:"unsubscribed"`
}

func (q *queries) CampaignStats(ctx context.Context) (CampaignStats, error) {
	var s CampaignStats
	err := q.queryRow(ctx, `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN open_count > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN replied_at IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN bounced_at IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN unsubscribed_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM email_campaigns`).Scan(&s.Sent, &s.Opened, &s.Replied, &s.Bounced, &s.Unsubscribed)
	return s, err
}

// InsertEvent appends an audit row. OccurredAt defaults to now.
func (q *queries) InsertEvent(ctx context.Context, e *EmailEvent) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	occurred := q.nowMillis()
	if !e.OccurredAt.IsZero() {
		occurred = e.OccurredAt.UnixMilli()
	}
	raw := e.RawPayload
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	_, err := q.exec(ctx, `INSERT INTO email_events
		(id, campaign_id, candidate_id, kind, ip_address, user_agent, url, raw_payload, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullString(e.CampaignID), nullString(e.CandidateID), string(e.Kind),
		e.IPAddress, e.UserAgent, e.URL, raw, occurred)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.OccurredAt = fromMillis(occurred)
	return nil
}

// EventFilter narrows ListEvents; empty fields match everything.
type EventFilter struct {
	CampaignID  string
	CandidateID string
	Kind        EventKind
	Limit       int
}

// ListEvents returns audit rows oldest first.
func (q *queries) ListEvents(ctx context.Context, f EventFilter) ([]*EmailEvent, error) {
	var where []string
	var args []any
	if f.CampaignID != "" {
		where = append(where, "campaign_id = ?")
		args = append(args, f.CampaignID)
	}
	if f.CandidateID != "" {
		where = append(where, "candidate_id = ?")
		args = append(args, f.CandidateID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	query := `SELECT id, campaign_id, candidate_id, kind, ip_address, user_agent, url, raw_payload, occurred_at
		FROM email_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*EmailEvent
	for rows.Next() {
		var e EmailEvent
		var campaignID, candidateID sql.NullString
		var kind string
		var occurred int64
		if err := rows.Scan(&e.ID, &campaignID, &candidateID, &kind, &e.IPAddress, &e.UserAgent,
			&e.URL, &e.RawPayload, &occurred); err != nil {
			return nil, err
		}
		e.CampaignID = campaignID.String
		e.CandidateID = candidateID.String
		e.Kind = EventKind(kind)
		e.OccurredAt = fromMillis(occurred)
		res = append(res, &e)
	}
	return res, rows.Err()
}

func scanCampaign(row rowScanner) (*Campaign, error) {
	var c Campaign
	var templateID sql.NullString
	var sentAt, createdAt int64
	var firstOpened, lastOpened, replied, bounced, unsubscribed sql.NullInt64
	if err := row.Scan(&c.ID, &c.CandidateID, &templateID, &c.RenderedSubject, &c.RenderedHTML,
		&c.RenderedText, &c.TrackingToken, &c.TransportMessageID, &sentAt, &c.OpenCount,
		&firstOpened, &lastOpened, &replied, &bounced, &unsubscribed, &createdAt); err != nil {
		return nil, err
	}
	c.TemplateID = templateID.String
	c.SentAt = fromMillis(sentAt)
	c.FirstOpenedAt = fromNullMillis(firstOpened)
	c.LastOpenedAt = fromNullMillis(lastOpened)
	c.RepliedAt = fromNullMillis(replied)
	c.BouncedAt = fromNullMillis(bounced)
	c.UnsubscribedAt = fromNullMillis(unsubscribed)
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
