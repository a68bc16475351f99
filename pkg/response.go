package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse is the envelope of every console response.
// The admin frontend always sees the same shape: success + data, or success=false
// + error. The error string is what the dashboard shows in its alert banner.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a successful response.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: true,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Error writes an error response.
// Domain errors (and backend errors, via BackendError.Is) are mapped to a status
// code; the message keeps the backend's wording when there is one.
//
// Unclassified errors become a plain 500 without their text, which may carry
// SQL or file paths.
func Error(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	var be *BackendError
	if status == http.StatusInternalServerError && !errors.As(err, &be) {
		ErrorWithMessage(w, status, "internal server error")
		return
	}
	ErrorWithMessage(w, status, UserMessage(err))
}

// ErrorWithMessage writes an error response with a custom message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// mapErrorToStatus maps domain errors to HTTP status codes.
// errors.Is walks the wrap chain, so wrapped errors still match.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor is the HTTP status Error would use for err.
func StatusFor(err error) int {
	return mapErrorToStatus(err)
}
