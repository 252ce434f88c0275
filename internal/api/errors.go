package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/nerrad567/feedline-core/internal/apperr"
)

// Error represents a structured error response.
type Error struct {
	Status     int                `json:"status"`
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Violations []apperr.Violation `json:"violations,omitempty"`
}

// statusByKind is the only place a failure kind becomes a status code.
var statusByKind = map[apperr.Kind]int{
	apperr.StorageFailure:   http.StatusInternalServerError,
	apperr.Unauthenticated:  http.StatusUnauthorized,
	apperr.Forbidden:        http.StatusForbidden,
	apperr.ValidationFailed: http.StatusUnprocessableEntity,
	apperr.NotFound:         http.StatusNotFound,
	apperr.Conflict:         http.StatusConflict,
	apperr.RateLimited:      http.StatusTooManyRequests,
	apperr.BadRequest:       http.StatusBadRequest,
}

// statusFor returns the HTTP status for a kind.
func statusFor(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// respondError is the terminal error responder. Storage faults are logged
// with their cause and answered with a generic message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := statusFor(e.Kind)

	logArgs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", r.Context().Value(ctxKeyRequestID),
	}
	if e.Kind == apperr.StorageFailure {
		s.logger.Error("request failed", append(logArgs, "error", err)...)
	} else {
		s.logger.Debug("request rejected", append(logArgs, "error", err)...)
	}

	message := e.Message
	if e.Kind == apperr.StorageFailure {
		message = "internal error"
	}

	writeJSON(w, status, Error{
		Status:     status,
		Code:       e.Kind.String(),
		Message:    message,
		Violations: e.Violations,
	})
}

// decodeJSON reads a JSON body into v. A field of the wrong JSON type is a
// validation failure on that field; unreadable or oversized bodies are
// BadRequest.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.BadRequest, "request body too large", err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Validation([]apperr.Violation{{
				Field:   typeErr.Field,
				Message: "must be " + jsonTypeName(typeErr.Type),
			}})
		}
		return apperr.Wrap(apperr.BadRequest, "invalid JSON body", err)
	}
	return nil
}

// jsonTypeName describes the JSON value a Go field accepts.
func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
