// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package config loads Guestlink configuration with koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file from CONFIG_PATH or one of DefaultConfigPaths
//  3. Environment variables listed in envMappings
//
// Slice fields (CORS_ORIGINS, SYNC_PROPERTY_IDS) accept comma-separated values
// from the environment. Load validates the result and returns *ConfigError for
// the first invalid field.
package config
