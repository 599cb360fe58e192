// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilPublisher is returned when a component is built without a publisher.
	ErrNilPublisher = errors.New("publisher cannot be nil")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorCategory classifies handler errors for logs and metrics.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for unclassified errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConnection indicates network or connection failures.
	ErrorCategoryConnection
	// ErrorCategoryTimeout indicates operation timeout.
	ErrorCategoryTimeout
	// ErrorCategoryValidation indicates malformed or incomplete input.
	ErrorCategoryValidation
	// ErrorCategoryStorage indicates store failures such as unresolved conflicts.
	ErrorCategoryStorage
	// ErrorCategoryCapacity indicates resource capacity issues.
	ErrorCategoryCapacity
)

// String returns the metric label for c.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConnection:
		return "connection"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryStorage:
		return "storage"
	case ErrorCategoryCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// RetryableError marks a failure the router should retry with backoff.
type RetryableError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewRetryableError wraps cause as retryable.
func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{
		Message:  message,
		Cause:    cause,
		Category: categorize(message, cause),
	}
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// PermanentError marks a message that can never succeed. It is logged and
// acknowledged instead of retried.
type PermanentError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewPermanentError wraps cause as permanent. Unclassified permanent errors
// count as validation failures.
func NewPermanentError(message string, cause error) *PermanentError {
	category := categorize(message, cause)
	if category == ErrorCategoryUnknown {
		category = ErrorCategoryValidation
	}
	return &PermanentError{
		Message:  message,
		Cause:    cause,
		Category: category,
	}
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// IsRetryableError reports whether err wraps a *RetryableError.
func IsRetryableError(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsPermanentError reports whether err wraps a *PermanentError.
func IsPermanentError(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// CategoryOf returns the category carried by err, or ErrorCategoryUnknown.
func CategoryOf(err error) ErrorCategory {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Category
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Category
	}
	return ErrorCategoryUnknown
}

func categorize(message string, cause error) ErrorCategory {
	text := strings.ToLower(message)
	if cause != nil {
		text += " " + strings.ToLower(cause.Error())
	}
	switch {
	case containsAny(text, "connection", "network", "refused", "reset by peer", "no responders"):
		return ErrorCategoryConnection
	case containsAny(text, "timeout", "deadline", "timed out"):
		return ErrorCategoryTimeout
	case containsAny(text, "invalid", "malformed", "validation", "missing", "unknown message type"):
		return ErrorCategoryValidation
	case containsAny(text, "conflict", "badger", "store", "claim"):
		return ErrorCategoryStorage
	case containsAny(text, "capacity", "full", "limit", "too many"):
		return ErrorCategoryCapacity
	default:
		return ErrorCategoryUnknown
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
