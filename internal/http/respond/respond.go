package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/observability"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// Fail writes err with the status apperr assigns to it.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	FailStatus(w, r, apperr.HTTPStatus(err), err)
}

// FailStatus writes err with an explicit status. Server-side failures are logged with the
// request logger before the message is returned.
func FailStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		observability.Logger(r.Context(), nil).Error("request_failed",
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err),
		)
	}
	Error(w, status, apperr.Message(err))
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("respond_encode_failed", zap.Int("status", status), zap.Error(err))
	}
}
