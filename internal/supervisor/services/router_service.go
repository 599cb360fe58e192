// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package services

import (
	"context"
	"errors"
	"fmt"
)

// MessageRouter matches the lifecycle of eventprocessor.Router.
type MessageRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterService runs the queue router as a supervised service. Run blocks
// until the context is canceled; a router that stops on its own is an error
// so suture restarts it.
//
// A Watermill router cannot be run twice, so the service takes a factory and
// builds a fresh router for every (re)start.
type RouterService struct {
	build func() (MessageRouter, error)
	name  string
}

// NewRouterService creates a router service. build is called on every start.
func NewRouterService(build func() (MessageRouter, error)) *RouterService {
	return &RouterService{build: build, name: "queue-router"}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	router, err := s.build()
	if err != nil {
		return fmt.Errorf("build queue router: %w", err)
	}

	runErr := router.Run(ctx)
	closeErr := router.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr == nil {
		runErr = errors.New("queue router stopped unexpectedly")
	}
	return errors.Join(fmt.Errorf("queue router: %w", runErr), closeErr)
}

// String implements fmt.Stringer for logging.
func (s *RouterService) String() string {
	return s.name
}
