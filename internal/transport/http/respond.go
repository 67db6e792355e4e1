package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to status codes. Anything that would be a 500 is logged and
// replaced by an opaque body.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondJSON(w, status, errorBody{Message: "Internal server error", Error: string(domain.KindInternal)})
		return
	}

	body := errorBody{Error: string(kind)}
	var de *domain.Error
	if errors.As(err, &de) {
		body.Message = de.Message
		body.Field = de.Field
		if de.Field != "" {
			body.Message = de.Field + " " + de.Message
		}
	}
	respondJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst; an empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Validation("body", "must be valid JSON: %v", err)
	}
	return nil
}
