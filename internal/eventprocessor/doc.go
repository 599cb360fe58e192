// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package eventprocessor is the work queue that feeds reservations to the
// guest linker, built on Watermill over NATS JetStream.
//
// # Flow
//
//	webhook receiver ──► webhook.events ──► WebhookHandler ──┐
//	                                                         │ upsert + enqueue
//	sync / backfill ───────────────────────────────────────► guest.link ──► LinkHandler ──► guest.Linker
//	                                                                            │
//	                                                     retries exhausted ──► guest.poison
//
// Both producers publish the same message shape:
//
//	{"type": "reservation" | "backfill-reservation", "reservation": {...}}
//
// so the linker has a single consumer path and replays are harmless.
//
// # Failure Handling
//
// Every message is handled on its own; a failure never holds back the rest
// of a batch. Handlers classify errors:
//
//   - *PermanentError (malformed JSON, unknown type, incomplete reservation):
//     logged, counted in guestlink_queue_messages_dropped_total and
//     acknowledged. Never retried, never poison-queued.
//   - anything else: retried with exponential backoff by the router, then
//     published to the poison topic and acknowledged.
//
// Driver.ProcessBatch offers the same isolation for callers that hold a
// batch in memory and need the ids of the messages that failed.
//
// # Transport
//
// Publisher and Subscriber wrap watermill-nats. The publisher sets
// Nats-Msg-Id from the message UUID and runs behind a gobreaker circuit
// breaker. StreamInitializer provisions the single GUESTLINK stream that
// covers every topic, and EmbeddedServer runs nats-server in-process when no
// external broker is configured.
package eventprocessor
