package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const traceIDHeader = "X-Trace-ID"

// withTraceID tags every request with a trace identifier and binds a child
// logger carrying it to the request context. Operator actions on the
// remediation ledger are correlated with their audit webhook deliveries and
// store writes through this one field.
//
// An inbound X-Trace-ID (e.g. from the admin UI's gateway) is honored;
// otherwise a fresh UUID is generated. The identifier is echoed back on the
// response so callers can quote it when reporting a failed scan or retry.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(r.Context()))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
