// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/validation"
)

// maxJSONBodyBytes bounds request bodies of the JSON endpoints.
const maxJSONBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope. count is set for lists.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data any, count *int) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
			Count:     count,
		},
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	respondErrorDetails(w, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]any, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondDomainError classifies err and responds with the matching status.
// Server-side failures are logged; client errors are not.
func respondDomainError(w http.ResponseWriter, message string, err error) {
	status, code := classifyError(err)

	var verr *validation.Error
	if errors.As(err, &verr) {
		respondErrorDetails(w, status, code, verr.Error(), verr.Details(), nil)
		return
	}
	if status >= http.StatusInternalServerError {
		respondError(w, status, code, message, err)
		return
	}
	respondError(w, status, code, err.Error(), nil)
}

// decodeJSON reads a JSON body into v and validates it. An empty body leaves
// v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large", nil)
			return false
		}
		respondError(w, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body", nil)
		return false
	}

	if err := validation.Struct(v); err != nil {
		respondDomainError(w, "Validation failed", err)
		return false
	}
	return true
}

// pathID returns a key-safe path parameter or responds 400.
func pathID(w http.ResponseWriter, name, value string) (string, bool) {
	if value == "" || !validation.IsKeySafe(value) {
		respondError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid %s", name), nil)
		return "", false
	}
	return value, true
}
