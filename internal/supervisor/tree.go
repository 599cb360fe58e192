// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/guestlink/internal/config"
)

// Layer names a branch of the tree. Services in different layers restart
// independently.
type Layer int

const (
	// LayerData holds store maintenance such as value log GC.
	LayerData Layer = iota
	// LayerMessaging holds the queue router and the sync scheduler.
	LayerMessaging
	// LayerAPI holds the HTTP server.
	LayerAPI
)

var layerNames = [...]string{
	LayerData:      "data-layer",
	LayerMessaging: "messaging-layer",
	LayerAPI:       "api-layer",
}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return fmt.Sprintf("layer(%d)", int(l))
	}
	return layerNames[l]
}

// TreeConfig tunes suture's restart policy for every supervisor in the tree.
type TreeConfig struct {
	// FailureThreshold is the failure count that triggers backoff. Default 5.
	FailureThreshold float64
	// FailureDecay is the decay rate of the failure count in seconds. Default 30.
	FailureDecay float64
	// FailureBackoff is how long a supervisor pauses restarts. Default 15s.
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long a service may take to stop. Default 10s.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// TreeConfigFromConfig converts the supervisor section of the application
// config. Zero values fall back to the defaults in NewSupervisorTree.
func TreeConfigFromConfig(cfg config.SupervisorConfig) TreeConfig {
	return TreeConfig{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		ShutdownTimeout:  cfg.ShutdownTimeout,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is the guestlink process tree: a root supervisor with one
// child supervisor per Layer. A crash loop in the messaging layer leaves the
// API serving reads.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers [len(layerNames)]*suture.Supervisor
	logger *slog.Logger
	config TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events are logged through
// sutureslog on logger.
func NewSupervisorTree(logger *slog.Logger, cfg TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, fmt.Errorf("supervisor tree: nil logger")
	}
	cfg = cfg.withDefaults()

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("guestlink", cfg.spec(hook)),
		logger: logger,
		config: cfg,
	}
	// Children inherit the root's hook once added.
	for l := range t.layers {
		t.layers[l] = suture.New(Layer(l).String(), cfg.spec(nil))
		t.root.Add(t.layers[l])
	}
	return t, nil
}

// Add places svc under the supervisor of layer.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) suture.ServiceToken {
	t.logger.Debug("adding supervised service", "layer", layer.String(), "service", fmt.Sprint(svc))
	return t.layers[layer].Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The returned channel
// receives the result when the root stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
