package api

import (
	"net/http"
	"strconv"

	"cv-status/internal/apperr"
	"cv-status/internal/storage"
)

// TemplateRequest is the writable part of an email template.
type TemplateRequest struct {
	Name         string `json:"name" example:"intro"`
	Subject      string `json:"subject"`
	BodyHTML     string `json:"body_html"`
	BodyText     string `json:"body_text"`
	BodyMarkdown string `json:"body_markdown"`
	IsActive     *bool  `json:"is_active"`
}

func (req TemplateRequest) toTemplate(id string) *storage.EmailTemplate {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &storage.EmailTemplate{
		ID:           id,
		Name:         req.Name,
		Subject:      req.Subject,
		BodyHTML:     req.BodyHTML,
		BodyText:     req.BodyText,
		BodyMarkdown: req.BodyMarkdown,
		IsActive:     active,
	}
}

// ListTemplatesHandler lists email templates
// @Summary List templates
// @Tags emails
// @Produce json
// @Param active query bool false "Only active templates"
// @Success 200 {array} storage.EmailTemplate
// @Router /emails/templates [get]
func (a *API) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeError(w, r, apperr.Validation("active must be true or false"))
			return
		}
		activeOnly = v
	}
	tmpls, err := a.db.ListTemplates(r.Context(), activeOnly)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if tmpls == nil {
		tmpls = []*storage.EmailTemplate{}
	}
	a.writeJSON(w, http.StatusOK, tmpls)
}

// CreateTemplateHandler stores a new template
// @Summary Create template
// @Description Placeholders are validated here; unknown placeholder names are rejected.
// @Tags emails
// @Accept json
// @Produce json
// @Param body body TemplateRequest true "Template"
// @Success 201 {object} storage.EmailTemplate
// @Failure 400 {object} ErrorBody
// @Router /emails/templates [post]
func (a *API) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	tmpl := req.toTemplate("")
	if err := a.tracker.CreateTemplate(r.Context(), tmpl); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, tmpl)
}

// GetTemplateHandler returns one template
// @Summary Get template
// @Tags emails
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} storage.EmailTemplate
// @Failure 404 {object} ErrorBody
// @Router /emails/templates/{id} [get]
func (a *API) GetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	tmpl, err := a.db.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tmpl)
}

// UpdateTemplateHandler replaces a template
// @Summary Update template
// @Tags emails
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param body body TemplateRequest true "Template"
// @Success 200 {object} storage.EmailTemplate
// @Failure 400 {object} ErrorBody
// @Failure 404 {object} ErrorBody
// @Router /emails/templates/{id} [put]
func (a *API) UpdateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	tmpl := req.toTemplate(r.PathValue("id"))
	if err := a.tracker.UpdateTemplate(r.Context(), tmpl); err != nil {
		a.writeError(w, r, err)
		return
	}
	stored, err := a.db.GetTemplate(r.Context(), tmpl.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, stored)
}

// DeleteTemplateHandler removes a template
// @Summary Delete template
// @Description Campaigns sent with it keep their rendered copy.
// @Tags emails
// @Param id path string true "Template ID"
// @Success 204
// @Failure 404 {object} ErrorBody
// @Router /emails/templates/{id} [delete]
func (a *API) DeleteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.db.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
