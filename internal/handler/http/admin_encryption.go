package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/models"
)

// retryRequest is the operator retry body. Key carries candidate key
// material: base64 of 32 bytes or a passphrase to derive from.
type retryRequest struct {
	Key string `json:"key"`
}

// unrecoverableRequest carries the operator's note explaining why the data
// is being written off.
type unrecoverableRequest struct {
	Note string `json:"note"`
}

func (h *Handler) scanForIssues(w http.ResponseWriter, r *http.Request) {
	result, err := h.services.RemediationService.Scan(r.Context())
	if err != nil {
		writeError(w, r, "*Handler.scanForIssues", err)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	filter := models.IssueFilter{
		Status:     r.URL.Query().Get("status"),
		TargetType: r.URL.Query().Get("target_type"),
	}

	issues, err := h.services.RemediationService.ListIssues(r.Context(), filter)
	if err != nil {
		writeError(w, r, "*Handler.listIssues", err)
		return
	}

	utils.WriteJSON(w, models.IssuesResponse{Issues: issues, Length: len(issues)}, http.StatusOK)
}

func (h *Handler) retryIssue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	issueID := chi.URLParam(r, "issueID")

	var body retryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.retryIssue").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.RemediationService.Retry(r.Context(), issueID, body.Key)
	if err != nil {
		writeError(w, r, "*Handler.retryIssue", err)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) markIssueUnrecoverable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	issueID := chi.URLParam(r, "issueID")

	// the note is optional: an empty body means no note, not bad JSON.
	var body unrecoverableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		log.Err(err).Str("func", "*Handler.markIssueUnrecoverable").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	issue, err := h.services.RemediationService.MarkUnrecoverable(r.Context(), issueID, body.Note)
	if err != nil {
		writeError(w, r, "*Handler.markIssueUnrecoverable", err)
		return
	}

	utils.WriteJSON(w, issue, http.StatusOK)
}

func (h *Handler) reopenIssue(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "issueID")

	issue, err := h.services.RemediationService.Reopen(r.Context(), issueID)
	if err != nil {
		writeError(w, r, "*Handler.reopenIssue", err)
		return
	}

	utils.WriteJSON(w, issue, http.StatusOK)
}
