package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/models"
)

const defaultPaymentPageSize = 100

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var input models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Err(err).Str("func", "*Handler.createPayment").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	payment, err := h.services.PaymentService.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, "*Handler.createPayment", err)
		return
	}

	utils.WriteJSON(w, payment, http.StatusCreated)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit := queryInt(r, "limit", defaultPaymentPageSize)
	offset := queryInt(r, "offset", 0)

	views, err := h.services.PaymentService.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, "*Handler.listPayments", err)
		return
	}

	utils.WriteJSON(w, views, http.StatusOK)
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or not a non-negative integer.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}

	return value
}
