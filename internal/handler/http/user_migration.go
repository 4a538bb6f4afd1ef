package http

import (
	"net/http"

	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/models"
)

func (h *Handler) getEncryptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	status, err := h.services.MigrationService.EncryptionStatus(r.Context(), userID)
	if err != nil {
		writeError(w, r, "*Handler.getEncryptionStatus", err)
		return
	}

	utils.WriteJSON(w, status, http.StatusOK)
}

func (h *Handler) prepareMigration(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit := queryInt(r, "limit", 0)

	payments, err := h.services.MigrationService.PrepareMigration(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, "*Handler.prepareMigration", err)
		return
	}

	utils.WriteJSON(w, models.MigrationExportResponse{Payments: payments, Length: len(payments)}, http.StatusOK)
}

func (h *Handler) markMigrated(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	flag, err := h.services.MigrationService.MarkMigrated(r.Context(), userID)
	if err != nil {
		writeError(w, r, "*Handler.markMigrated", err)
		return
	}

	utils.WriteJSON(w, flag, http.StatusOK)
}
