// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package supervisor provides Suture-based process supervision for Guestlink.
//
// Long-running components are wrapped as suture.Service values (see the
// services subpackage) and placed in one of three layers of a
// SupervisorTree. A service that returns an error is restarted with
// backoff; a crash loop in one layer does not stop the others.
//
//	root (guestlink)
//	├── data-layer       store value log GC
//	├── messaging-layer  queue router, sync scheduler
//	└── api-layer        HTTP server
//
// Supervisor events are logged through sutureslog into the zerolog-backed
// slog handler from internal/logging.
//
// Example:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromConfig(cfg.Supervisor))
//	if err != nil {
//	    return err
//	}
//	tree.Add(supervisor.LayerData, services.NewStoreGCService(db, cfg.Store.GCInterval))
//	tree.Add(supervisor.LayerMessaging, services.NewRouterService(router))
//	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
//	return tree.Serve(ctx)
package supervisor
