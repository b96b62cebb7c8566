package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/domain"
	"github.com/kailas-cloud/docrank/internal/logger"
)

// sentinelMapping ties a domain sentinel to its HTTP representation.
type sentinelMapping struct {
	err    error
	status int
	code   ErrorCode
}

var sentinels = []sentinelMapping{
	{domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrBackendUnavailable, http.StatusServiceUnavailable, CodeBackendUnavailable},
	{domain.ErrConnectionClosed, http.StatusServiceUnavailable, CodeConnectionClosed},
	{domain.ErrDataCorruption, http.StatusBadGateway, CodeDataCorruption},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// handleDomainError writes the sentinel message for known errors without exposing internals.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			log.Warn("domain error", zap.Error(err))
			writeError(w, s.status, s.code, s.err.Error())
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
