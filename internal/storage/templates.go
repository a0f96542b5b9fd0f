package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cv-status/internal/apperr"
)

const templateColumns = `id, name, subject, body_html, body_text, body_markdown, is_active, created_at, updated_at`

// CreateTemplate stores a template that has already passed validation.
func (q *queries) CreateTemplate(ctx context.Context, t *EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := q.nowMillis()
	_, err := q.exec(ctx, `INSERT INTO email_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Subject, t.BodyHTML, t.BodyText, t.BodyMarkdown, t.IsActive, now, now)
	if isUniqueViolation(err) {
		return ErrUniqueConstraint
	}
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	t.CreatedAt = fromMillis(now)
	t.UpdatedAt = fromMillis(now)
	return nil
}

func (q *queries) GetTemplate(ctx context.Context, id string) (*EmailTemplate, error) {
	row := q.queryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("template", id)
	}
	return t, err
}

// GetTemplateByName returns the most recently updated template with the given name.
func (q *queries) GetTemplateByName(ctx context.Context, name string) (*EmailTemplate, error) {
	row := q.queryRow(ctx, `SELECT `+templateColumns+` FROM email_templates
		WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("template", name)
	}
	return t, err
}

// ListTemplates returns templates by name. activeOnly hides deactivated ones.
func (q *queries) ListTemplates(ctx context.Context, activeOnly bool) ([]*EmailTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates`
	var args []any
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY name, created_at`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*EmailTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpdateTemplate replaces all editable fields.
func (q *queries) UpdateTemplate(ctx context.Context, t *EmailTemplate) error {
	now := q.nowMillis()
	res, err := q.exec(ctx, `UPDATE email_templates
		SET name = ?, subject = ?, body_html = ?, body_text = ?, body_markdown = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, t.Subject, t.BodyHTML, t.BodyText, t.BodyMarkdown, t.IsActive, now, t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("template", t.ID)
	}
	t.UpdatedAt = fromMillis(now)
	return nil
}

// DeleteTemplate removes a template. Campaigns keep their rendered copy and lose the reference.
func (q *queries) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := q.exec(ctx, `UPDATE email_campaigns SET template_id = NULL WHERE template_id = ?`, id); err != nil {
		return fmt.Errorf("detach campaigns: %w", err)
	}
	res, err := q.exec(ctx, `DELETE FROM email_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("template", id)
	}
	return nil
}

func scanTemplate(row rowScanner) (*EmailTemplate, error) {
	var t EmailTemplate
	var createdAt, updatedAt int64
	if err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.BodyHTML, &t.BodyText, &t.BodyMarkdown,
		&t.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}
