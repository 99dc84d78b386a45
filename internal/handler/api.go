// Package handler provides the HTTP/JSON handlers for the API surface:
// authentication, page content, attractions, users, visitor messages,
// file upload, and health.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies at 10MB; content values may embed
// sizeable text but nothing should approach this.
const maxBodyBytes = 10 << 20

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response with {"success": true}.
func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteValidationError writes a 400 response with field errors.
func WriteValidationError(w http.ResponseWriter, message string, fieldErrors map[string]string) {
	WriteError(w, http.StatusBadRequest, "validation_error", message, fieldErrors)
}

// WriteUnauthenticated writes a 401 Unauthorized response.
func WriteUnauthenticated(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required", nil)
}

// WriteInvalidCredentials writes the uniform 401 login failure. The message
// is identical whether the email existed or the password was wrong, to
// resist account enumeration.
func WriteInvalidCredentials(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 response. Internal detail is logged by
// the caller, never surfaced here.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Something went wrong", nil)
}

// decodeJSON decodes a JSON request body into dst, enforcing the body
// size cap. Returns a caller-facing error message on failure.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// ParseIDParam parses the {id} URL parameter as an int64.
func ParseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// logStorageError logs a persistence failure with enough context for
// operators; the caller still responds with a generic 500.
func logStorageError(op string, err error, attrs ...any) {
	args := append([]any{"category", "storage", "error", err}, attrs...)
	slog.Error(op, args...)
}
