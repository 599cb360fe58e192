// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package services adapts Guestlink's long-running components to
// suture.Service.
//
//	HTTPServerService  *http.Server           ListenAndServe / Shutdown
//	SyncService        *sync.Scheduler        Start / Stop
//	RouterService      *eventprocessor.Router Run / Close, rebuilt per start
//	StoreGCService     *store.Store           periodic RunGC
//
// Every wrapper returns ctx.Err() on a requested stop and a non-nil error
// when the wrapped component fails, so the supervisor restarts it.
package services
