// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package logging provides the zerolog-based structured logger used across Guestlink.
//
// A single global logger is configured once from main via Init and read through
// the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("property_id", pid).Msg("sync started")
//	logging.Error().Err(err).Msg("link failed")
//
// Request and message scoped logging goes through Ctx, which attaches the
// correlation id carried on the context:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Msg("claim resolved")
//
// Libraries that expect log/slog (suture via sutureslog, Watermill via
// watermill.NewSlogLogger) are bridged with NewSlogLogger.
//
// Guest contact data is personal information. Log it through MaskEmail and
// MaskPhone, never raw.
//
// Environment variables (read by internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
package logging
