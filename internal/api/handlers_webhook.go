// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/metrics"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Hospitable-Signature"

// Webhook outcomes recorded in metrics.WebhooksReceived.
const (
	webhookAccepted      = "accepted"
	webhookBadSignature  = "bad_signature"
	webhookTooLarge      = "too_large"
	webhookPublishFailed = "publish_failed"
)

// HospitableWebhook receives a webhook delivery, verifies its signature and
// publishes the raw body to the webhook topic. Processing is asynchronous.
func (h *Handler) HospitableWebhook(w http.ResponseWriter, r *http.Request) {
	cfg := h.config.Webhook
	if !cfg.Enabled || h.publisher == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotEnabled, "Webhooks are not enabled", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.WebhooksReceived.WithLabelValues(webhookTooLarge).Inc()
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Webhook body too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, CodeBadRequest, "Failed to read webhook body", nil)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		metrics.WebhooksReceived.WithLabelValues(webhookBadSignature).Inc()
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, SignatureHeader+" header required", nil)
		return
	}
	if !verifyWebhookSignature(body, signature, cfg.Secret) {
		metrics.WebhooksReceived.WithLabelValues(webhookBadSignature).Inc()
		logging.Ctx(r.Context()).Warn().Str("remote_addr", sanitizeLogValue(r.RemoteAddr)).Msg("Rejected webhook with invalid signature")
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid webhook signature", nil)
		return
	}

	msg := eventprocessor.NewWebhookMessage(r.Context(), body)
	if err := h.publisher.Publish(h.webhookTopic, msg); err != nil {
		metrics.WebhooksReceived.WithLabelValues(webhookPublishFailed).Inc()
		respondError(w, http.StatusServiceUnavailable, CodeQueueUnavailable, "Failed to queue webhook", err)
		return
	}

	metrics.WebhooksReceived.WithLabelValues(webhookAccepted).Inc()
	logging.Ctx(r.Context()).Debug().Str("message_id", msg.UUID).Int("bytes", len(body)).Msg("Webhook queued")
	respondSuccess(w, r, http.StatusAccepted, map[string]string{"messageId": msg.UUID}, nil)
}

// verifyWebhookSignature verifies the HMAC-SHA256 signature of the webhook
// payload. A "sha256=" prefix on the signature is accepted.
func verifyWebhookSignature(body []byte, signature, secret string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignWebhook returns the signature header value for body.
func SignWebhook(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
