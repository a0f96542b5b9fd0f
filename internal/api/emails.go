package api

import (
	"net/http"

	"cv-status/internal/apperr"
	"cv-status/internal/campaign"
	"cv-status/internal/storage"
	"cv-status/internal/template"
)

// SendEmailRequest picks the template and the send-time placeholder values.
type SendEmailRequest struct {
	TemplateID string               `json:"template_id"`
	Context    template.SendContext `json:"context"`
}

// BulkSendResponse lists one result per requested candidate, in request order.
type BulkSendResponse struct {
	Sent    int                   `json:"sent"`
	Failed  int                   `json:"failed"`
	Results []campaign.SendResult `json:"results"`
}

// CampaignDetail is a campaign with its audit events.
type CampaignDetail struct {
	*storage.Campaign
	Events []*storage.EmailEvent `json:"events"`
}

// SendEmailHandler sends a tracked email to one candidate
// @Summary Send email
// @Tags emails
// @Accept json
// @Produce json
// @Param candidate_id path string true "Candidate ID"
// @Param body body SendEmailRequest true "Template and context"
// @Success 201 {object} storage.Campaign
// @Failure 400 {object} ErrorBody
// @Failure 404 {object} ErrorBody
// @Failure 502 {object} ErrorBody
// @Router /emails/send/{candidate_id} [post]
func (a *API) SendEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	camp, err := a.tracker.SendOne(r.Context(), campaign.SendRequest{
		CandidateID: r.PathValue("candidate_id"),
		TemplateID:  req.TemplateID,
		Context:     req.Context,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, camp)
}

// BulkSendHandler sends one template to many candidates
// @Summary Bulk send
// @Description Each candidate succeeds or fails on its own; results keep request order.
// @Tags emails
// @Accept json
// @Produce json
// @Param body body campaign.BulkSendRequest true "Candidates, template and context"
// @Success 200 {object} BulkSendResponse
// @Failure 400 {object} ErrorBody
// @Router /emails/send-bulk [post]
func (a *API) BulkSendHandler(w http.ResponseWriter, r *http.Request) {
	var req campaign.BulkSendRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(req.CandidateIDs) == 0 {
		a.writeError(w, r, apperr.Validation("candidate_ids is required"))
		return
	}
	results, err := a.tracker.BulkSend(r.Context(), req)
	if err != nil && results == nil {
		a.writeError(w, r, err)
		return
	}
	resp := BulkSendResponse{Results: results}
	for _, res := range results {
		if res.OK {
			resp.Sent++
		} else {
			resp.Failed++
		}
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// ListCampaignsHandler lists sent campaigns, newest first
// @Summary List campaigns
// @Tags emails
// @Produce json
// @Param candidate_id query string false "Only this candidate"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {array} storage.Campaign
// @Router /emails/campaigns [get]
func (a *API) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	camps, err := a.db.ListCampaigns(r.Context(), storage.CampaignFilter{
		CandidateID: r.URL.Query().Get("candidate_id"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if camps == nil {
		camps = []*storage.Campaign{}
	}
	a.writeJSON(w, http.StatusOK, camps)
}

// GetCampaignHandler returns one campaign with its events
// @Summary Get campaign
// @Tags emails
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} CampaignDetail
// @Failure 404 {object} ErrorBody
// @Router /emails/campaigns/{id} [get]
func (a *API) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	camp, err := a.db.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	evs, err := a.db.ListEvents(r.Context(), storage.EventFilter{CampaignID: camp.ID})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if evs == nil {
		evs = []*storage.EmailEvent{}
	}
	a.writeJSON(w, http.StatusOK, CampaignDetail{Campaign: camp, Events: evs})
}
