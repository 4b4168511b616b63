package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates client-facing error messages
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondEngineError maps the goal engine's opaque errors to HTTP statuses.
// what names the missing resource in 404 messages.
func respondEngineError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, goals.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", what+" not found")
	case errors.Is(err, goals.ErrInvalidInput):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "The request could not be completed")
	}
}

// callerID returns the caller id set by the identity middleware, answering
// 401 itself when it is missing
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := request.UserIDFromContext(r.Context())
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Caller identity missing")
	}
	return id, ok
}

// pathUUID parses a UUID route variable, answering 400 itself when invalid
func pathUUID(w http.ResponseWriter, r *http.Request, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into dst, answering 400 or 413 itself
// on failure. An empty body is an error unless optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
		return false
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
	return false
}
