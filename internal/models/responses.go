// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// APIResponse is the envelope for every JSON response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"2026-01-02T10:00:00Z"}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"guest not found"},"metadata":{...}}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ConversationView is returned by the conversation lookup: the reservation
// behind a conversation, its guest, and every reservation of that guest.
type ConversationView struct {
	Reservation  *Reservation   `json:"reservation"`
	Guest        *GuestProfile  `json:"guest,omitempty"`
	Reservations []*Reservation `json:"reservations"`
}

// GuestNotesRequest is the body of the host notes edit.
type GuestNotesRequest struct {
	HostNotes string `json:"hostNotes" validate:"max=10000"`
}

// SyncRequest is the body accepted by the admin sync endpoint.
type SyncRequest struct {
	PropertyIDs []string `json:"propertyIds,omitempty" validate:"omitempty,dive,required,keysafe"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
}

// SyncResult summarizes one reservation sync run.
type SyncResult struct {
	Properties    int `json:"properties"`
	Pages         int `json:"pages"`
	Upserted      int `json:"upserted"`
	Skipped       int `json:"skipped"`
	Enqueued      int `json:"enqueued"`
	AlreadyLinked int `json:"alreadyLinked"`
}

// BackfillRequest is the body accepted by the admin backfill endpoint.
type BackfillRequest struct {
	// All re-links every stored reservation instead of only unlinked ones.
	All bool `json:"all"`
}

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	Scanned   int `json:"scanned"`
	Published int `json:"published"`
	Batches   int `json:"batches"`
}

// LinkBatchRequest is a batch of queue-format link messages submitted for
// synchronous processing.
type LinkBatchRequest struct {
	Messages []LinkBatchItem `json:"messages" validate:"required,min=1,max=100,unique=MessageID,dive"`
}

// LinkBatchItem is one link message. Body has the same shape as a message
// on the link topic.
type LinkBatchItem struct {
	MessageID string          `json:"messageId" validate:"required,max=128"`
	Body      json.RawMessage `json:"body" validate:"required"`
}

// LinkBatchResult lists the messages that failed and may be resubmitted.
// Malformed messages are dropped and never listed.
type LinkBatchResult struct {
	Processed         int                `json:"processed"`
	BatchItemFailures []BatchItemFailure `json:"batchItemFailures"`
}

// BatchItemFailure names one failed message.
type BatchItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}
