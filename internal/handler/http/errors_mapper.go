package http

import (
	"errors"
	"net/http"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/service"
	"github.com/amanahapps/zakat-keeper/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrInvalidKeyMaterial:      http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrIssueResolved:           http.StatusConflict,
	service.ErrIssueUnrecoverable:      http.StatusConflict,

	store.ErrPaymentNotFound:     http.StatusNotFound,
	store.ErrIssueNotFound:       http.StatusNotFound,
	store.ErrSettingsNotFound:    http.StatusNotFound,
	store.ErrIssueStatusConflict: http.StatusConflict,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err and translates it to an HTTP response. Internal
// failures are reported with a generic status text so storage and crypto
// details never leak to callers.
func writeError(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	log := logger.FromRequest(r)
	status := statusFromError(err)

	log.Err(err).Str("func", funcName).Int("status", status).Send()

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(http.StatusInternalServerError)
	}

	http.Error(w, message, status)
}
