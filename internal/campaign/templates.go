package campaign

import (
	"context"
	"errors"

	"cv-status/internal/apperr"
	"cv-status/internal/storage"
	"cv-status/internal/template"
)

// CreateTemplate validates the placeholders before storing, so a template that could not
// be rendered is never saved.
func (t *Tracker) CreateTemplate(ctx context.Context, tmpl *storage.EmailTemplate) error {
	if err := template.Prepare(tmpl); err != nil {
		return err
	}
	err := t.db.CreateTemplate(ctx, tmpl)
	if errors.Is(err, storage.ErrUniqueConstraint) {
		return apperr.Validationf("template id %q already exists", tmpl.ID)
	}
	return err
}

func (t *Tracker) UpdateTemplate(ctx context.Context, tmpl *storage.EmailTemplate) error {
	if err := template.Prepare(tmpl); err != nil {
		return err
	}
	return t.db.UpdateTemplate(ctx, tmpl)
}

// ImportTemplates creates or replaces templates by name. It validates every template
// before writing any of them.
func (t *Tracker) ImportTemplates(ctx context.Context, tmpls []*storage.EmailTemplate) (created, updated int, err error) {
	for _, tmpl := range tmpls {
		if err := template.Prepare(tmpl); err != nil {
			return 0, 0, apperr.Validationf("template %q: %v", tmpl.Name, err)
		}
	}
	err = t.db.WithTx(ctx, func(tx *storage.Tx) error {
		for _, tmpl := range tmpls {
			existing, err := tx.GetTemplateByName(ctx, tmpl.Name)
			switch {
			case err == nil:
				tmpl.ID = existing.ID
				if err := tx.UpdateTemplate(ctx, tmpl); err != nil {
					return err
				}
				updated++
			case apperr.Is(err, apperr.CodeNotFound):
				if err := tx.CreateTemplate(ctx, tmpl); err != nil {
					return err
				}
				created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}
