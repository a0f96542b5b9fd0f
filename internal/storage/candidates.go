package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cv-status/internal/apperr"
	"cv-status/internal/status"
)

// maxCASAttempts bounds the read-compute-write loop in ApplySignal.
const maxCASAttempts = 5

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

const candidateColumns = `id, remote_id, source_name, fingerprint, full_name, email, phone, linkedin_url,
	location, years_experience, current_title, current_company, skills_json, tech_stack_json,
	domains_json, education_json, work_history_json, summary, raw_text, status, notes,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// NormalizeEmail is the reply-correlation form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DedupeFold trims values and drops case-insensitive duplicates, keeping first spelling and order.
func DedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// UpsertCandidate writes the extracted profile keyed by RemoteID. New rows start at PENDING;
// an existing row gets its profile fields replaced but its status and notes are never touched.
// On return c carries the stored ID, Status and timestamps.
func (q *queries) UpsertCandidate(ctx context.Context, c *Candidate) (created bool, err error) {
	if c.RemoteID == "" {
		return false, apperr.Validation("remote id is required")
	}
	if c.YearsExperience != nil && *c.YearsExperience < 0 {
		c.YearsExperience = nil
	}
	c.Skills = DedupeFold(c.Skills)
	c.TechStack = DedupeFold(c.TechStack)
	c.Domains = DedupeFold(c.Domains)

	lists, err := encodeLists(c)
	if err != nil {
		return false, err
	}
	now := q.nowMillis()

	// A concurrent delete between the two statements is the only reason to loop.
	for attempt := 0; attempt < 2; attempt++ {
		id := uuid.NewString()
		var insertedID string
		err = q.queryRow(ctx, `INSERT INTO candidates (`+candidateColumns+`, email_norm)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (remote_id) DO NOTHING
			RETURNING id`,
			id, c.RemoteID, c.SourceName, c.Fingerprint, c.Name, c.Email, c.Phone, c.LinkedInURL,
			c.Location, nullFloat(c.YearsExperience), c.CurrentTitle, c.CurrentCompany,
			lists[0], lists[1], lists[2], lists[3], lists[4], c.Summary, c.RawText,
			string(status.Pending), "", now, now, NormalizeEmail(c.Email),
		).Scan(&insertedID)
		if err == nil {
			c.ID = insertedID
			c.Status = status.Pending
			c.Notes = ""
			c.CreatedAt = fromMillis(now)
			c.UpdatedAt = fromMillis(now)
			return true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("insert candidate %s: %w", c.RemoteID, err)
		}

		var rawStatus, notes string
		var createdAt int64
		err = q.queryRow(ctx, `UPDATE candidates SET
				source_name = ?, fingerprint = ?, full_name = ?, email = ?, email_norm = ?, phone = ?,
				linkedin_url = ?, location = ?, years_experience = ?, current_title = ?, current_company = ?,
				skills_json = ?, tech_stack_json = ?, domains_json = ?, education_json = ?, work_history_json = ?,
				summary = ?, raw_text = ?, updated_at = ?
			WHERE remote_id = ?
			RETURNING id, status, notes, created_at`,
			c.SourceName, c.Fingerprint, c.Name, c.Email, NormalizeEmail(c.Email), c.Phone,
			c.LinkedInURL, c.Location, nullFloat(c.YearsExperience), c.CurrentTitle, c.CurrentCompany,
			lists[0], lists[1], lists[2], lists[3], lists[4],
			c.Summary, c.RawText, now,
			c.RemoteID,
		).Scan(&c.ID, &rawStatus, &notes, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("update candidate %s: %w", c.RemoteID, err)
		}
		st, err := status.Parse(rawStatus)
		if err != nil {
			return false, apperr.Internal(fmt.Errorf("candidate %s has stored status %q", c.ID, rawStatus))
		}
		c.Status = st
		c.Notes = notes
		c.CreatedAt = fromMillis(createdAt)
		c.UpdatedAt = fromMillis(now)
		return false, nil
	}
	return false, apperr.Internal(fmt.Errorf("candidate %s vanished during upsert", c.RemoteID))
}

// GetCandidate returns a candidate by ID.
func (q *queries) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	row := q.queryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("candidate", id)
	}
	return c, err
}

// IngestState is the stored ingestion cursor of one remote document.
type IngestState struct {
	CandidateID string
	Fingerprint string
	SourceName  string
}

// GetIngestState returns the stored cursor for a remote document.
// ok is false when no candidate exists for it yet.
func (q *queries) GetIngestState(ctx context.Context, remoteID string) (st IngestState, ok bool, err error) {
	err = q.queryRow(ctx, `SELECT id, fingerprint, source_name FROM candidates WHERE remote_id = ?`, remoteID).
		Scan(&st.CandidateID, &st.Fingerprint, &st.SourceName)
	if errors.Is(err, sql.ErrNoRows) {
		return IngestState{}, false, nil
	}
	if err != nil {
		return IngestState{}, false, err
	}
	return st, true, nil
}

// RenameSource records a new file name for a document whose content did not change.
func (q *queries) RenameSource(ctx context.Context, remoteID, name string) error {
	res, err := q.exec(ctx, `UPDATE candidates SET source_name = ?, updated_at = ? WHERE remote_id = ?`,
		name, q.nowMillis(), remoteID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("candidate", remoteID)
	}
	return nil
}

// FindCandidatesByEmail matches case-insensitively on the normalized address.
// An empty address never matches anything.
func (q *queries) FindCandidatesByEmail(ctx context.Context, email string) ([]*Candidate, error) {
	norm := NormalizeEmail(email)
	if norm == "" {
		return nil, nil
	}
	rows, err := q.query(ctx, `SELECT `+candidateColumns+` FROM candidates
		WHERE email_norm = ? ORDER BY created_at, id`, norm)
	if err != nil {
		return nil, err
	}
	return collectCandidates(rows)
}

// SearchCandidates returns candidates matching the filter, newest first.
func (q *queries) SearchCandidates(ctx context.Context, f CandidateFilter) ([]*Candidate, error) {
	var where []string
	var args []any

	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if len(f.Skills) > 0 {
		var skillConds []string
		for _, s := range f.Skills {
			skillConds = append(skillConds, "(LOWER(skills_json) LIKE ? OR LOWER(tech_stack_json) LIKE ?)")
			pattern := likePattern(s)
			args = append(args, pattern, pattern)
		}
		where = append(where, "("+strings.Join(skillConds, " OR ")+")")
	}
	if f.Domain != "" {
		where = append(where, "LOWER(domains_json) LIKE ?")
		args = append(args, likePattern(f.Domain))
	}
	if f.MinYears != nil {
		where = append(where, "years_experience >= ?")
		args = append(args, *f.MinYears)
	}
	if f.MaxYears != nil {
		where = append(where, "years_experience <= ?")
		args = append(args, *f.MaxYears)
	}
	if f.Query != "" {
		where = append(where, "(LOWER(full_name) LIKE ? OR LOWER(current_title) LIKE ? OR LOWER(summary) LIKE ?)")
		pattern := likePattern(f.Query)
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	return collectCandidates(rows)
}

// ListCandidates returns every candidate, oldest first. Used by export and backfills.
func (q *queries) ListCandidates(ctx context.Context) ([]*Candidate, error) {
	rows, err := q.query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectCandidates(rows)
}

// CountCandidatesByStatus returns how many candidates sit in each status.
func (q *queries) CountCandidatesByStatus(ctx context.Context) (map[status.Status]int, error) {
	rows, err := q.query(ctx, `SELECT status, COUNT(*) FROM candidates GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[status.Status]int, len(status.All))
	for _, s := range status.All {
		counts[s] = 0
	}
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		counts[status.Status(raw)] = n
	}
	return counts, rows.Err()
}

// DeleteCandidate removes a candidate together with its campaigns and events.
func (db *DB) DeleteCandidate(ctx context.Context, id string) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.exec(ctx, `DELETE FROM email_events
			WHERE candidate_id = ? OR campaign_id IN (SELECT id FROM email_campaigns WHERE candidate_id = ?)`, id, id); err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		if _, err := tx.exec(ctx, `DELETE FROM email_campaigns WHERE candidate_id = ?`, id); err != nil {
			return fmt.Errorf("delete campaigns: %w", err)
		}
		res, err := tx.exec(ctx, `DELETE FROM candidates WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete candidate: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("candidate", id)
		}
		return nil
	})
}

// ApplySignal runs the status transition for one candidate as a compare-and-set:
// the write only lands if the status is still the one the transition was computed from.
func (q *queries) ApplySignal(ctx context.Context, candidateID string, sig status.Signal) (status.Outcome, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var raw string
		err := q.queryRow(ctx, `SELECT status FROM candidates WHERE id = ?`, candidateID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return status.Outcome{}, apperr.NotFound("candidate", candidateID)
		}
		if err != nil {
			return status.Outcome{}, fmt.Errorf("read status: %w", err)
		}
		current, err := status.Parse(raw)
		if err != nil {
			return status.Outcome{}, apperr.Internal(fmt.Errorf("candidate %s has stored status %q", candidateID, raw))
		}

		out := status.Transition(current, sig)
		if !out.Changed {
			return out, nil
		}

		res, err := q.exec(ctx, `UPDATE candidates SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(out.Next), q.nowMillis(), candidateID, string(current))
		if err != nil {
			return status.Outcome{}, fmt.Errorf("write status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return out, nil
		}
	}
	return status.Outcome{}, apperr.Internal(fmt.Errorf("status of candidate %s changed %d times during update", candidateID, maxCASAttempts))
}

// AppendNote adds a timestamped audit line to the candidate's notes.
func (q *queries) AppendNote(ctx context.Context, candidateID, line string) error {
	entry := q.now().UTC().Format(time.RFC3339) + " " + line
	res, err := q.exec(ctx, `UPDATE candidates
		SET notes = CASE WHEN notes = '' THEN ? ELSE notes || ? END, updated_at = ?
		WHERE id = ?`, entry, "\n"+entry, q.nowMillis(), candidateID)
	if err != nil {
		return fmt.Errorf("append note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("candidate", candidateID)
	}
	return nil
}

// BackfillNormalization recomputes email_norm and list de-duplication for one row.
// It returns false when the row was already normalized.
func (q *queries) BackfillNormalization(ctx context.Context, c *Candidate, dryRun bool) (bool, error) {
	var storedNorm string
	if err := q.queryRow(ctx, `SELECT email_norm FROM candidates WHERE id = ?`, c.ID).Scan(&storedNorm); err != nil {
		return false, err
	}
	skills := DedupeFold(c.Skills)
	tech := DedupeFold(c.TechStack)
	domains := DedupeFold(c.Domains)
	norm := NormalizeEmail(c.Email)
	if storedNorm == norm && len(skills) == len(c.Skills) && len(tech) == len(c.TechStack) && len(domains) == len(c.Domains) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	c.Skills, c.TechStack, c.Domains = skills, tech, domains
	lists, err := encodeLists(c)
	if err != nil {
		return false, err
	}
	_, err = q.exec(ctx, `UPDATE candidates SET email_norm = ?, skills_json = ?, tech_stack_json = ?, domains_json = ?
		WHERE id = ?`, norm, lists[0], lists[1], lists[2], c.ID)
	return err == nil, err
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var c Candidate
	var years sql.NullFloat64
	var skills, tech, domains, education, work, rawStatus string
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.RemoteID, &c.SourceName, &c.Fingerprint, &c.Name, &c.Email, &c.Phone,
		&c.LinkedInURL, &c.Location, &years, &c.CurrentTitle, &c.CurrentCompany, &skills, &tech,
		&domains, &education, &work, &c.Summary, &c.RawText, &rawStatus, &c.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	st, err := status.Parse(rawStatus)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("candidate %s has stored status %q", c.ID, rawStatus))
	}
	c.Status = st
	if years.Valid {
		v := years.Float64
		c.YearsExperience = &v
	}
	for _, f := range []struct {
		raw  string
		dest any
	}{
		{skills, &c.Skills},
		{tech, &c.TechStack},
		{domains, &c.Domains},
		{education, &c.Education},
		{work, &c.WorkHistory},
	} {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, apperr.Internal(fmt.Errorf("candidate %s: decode list: %w", c.ID, err))
		}
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

func collectCandidates(rows *sql.Rows) ([]*Candidate, error) {
	defer rows.Close()
	var res []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// encodeLists returns skills, tech stack, domains, education and work history as JSON.
func encodeLists(c *Candidate) ([5]string, error) {
	var out [5]string
	for i, v := range []any{nonNil(c.Skills), nonNil(c.TechStack), nonNil(c.Domains), c.Education, c.WorkHistory} {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode candidate lists: %w", err)
		}
		if string(b) == "null" {
			b = []byte("[]")
		}
		out[i] = string(b)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
