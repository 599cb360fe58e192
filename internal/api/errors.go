// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/hospitable"
	"github.com/tomtom215/guestlink/internal/reservation"
	syncpkg "github.com/tomtom215/guestlink/internal/sync"
	"github.com/tomtom215/guestlink/internal/validation"
)

// Error codes used in APIError.Code.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeQueueUnavailable = "QUEUE_UNAVAILABLE"
	CodeNotEnabled       = "NOT_ENABLED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// classifyError maps a domain error to an HTTP status and error code.
func classifyError(err error) (int, string) {
	var verr *validation.Error
	var serr *hospitable.StatusError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, CodeValidationFailed
	case errors.Is(err, guest.ErrGuestNotFound), errors.Is(err, reservation.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, syncpkg.ErrInvalidWindow), errors.Is(err, syncpkg.ErrNoProperties):
		return http.StatusBadRequest, CodeBadRequest
	case errors.As(err, &serr):
		return http.StatusBadGateway, CodeUpstreamError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}
