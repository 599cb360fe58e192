// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package main is the entry point for the Guestlink server.
//
// Guestlink ingests vacation-rental reservations from Hospitable, resolves the
// guest behind each one to a stable guest id, and serves guest profiles and
// conversation lookups over HTTP.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config.yaml, environment (Koanf v2)
//  2. Store: BadgerDB key-value store for reservations, guests and identities
//  3. Queue: embedded or external NATS JetStream, stream provisioning,
//     Watermill publisher and subscriber
//  4. Linking: identity index, guest store and reservation linker
//  5. Sync: Hospitable client, sync manager, backfill and scheduler
//  6. HTTP Server: Chi router with the REST API and the webhook receiver
//
// Long-running components run under a suture supervisor tree with three
// layers (data, messaging, api) so a failing component is restarted without
// taking the process down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Scheduled and on-demand syncs require HOSPITABLE_TOKEN. Without it the
// server still links reservations delivered by webhook.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Lets the queue router drain in-flight messages
//   - Closes the publisher, subscriber and embedded NATS server
//   - Closes the store
//
// # Example Usage
//
//	export HOSPITABLE_TOKEN=your-token
//	export SYNC_ENABLED=true
//	export WEBHOOK_ENABLED=true
//	export WEBHOOK_SECRET=$(openssl rand -hex 32)
//	./guestlink
package main
