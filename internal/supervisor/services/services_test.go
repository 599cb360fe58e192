// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*SyncService)(nil)
	_ suture.Service = (*RouterService)(nil)
	_ suture.Service = (*StoreGCService)(nil)
)

type mockHTTPServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stop: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	if m.shutdowns.Add(1) == 1 {
		close(m.stop)
	}
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Run("shuts down on cancel", func(t *testing.T) {
		srv := newMockHTTPServer()
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times", srv.shutdowns.Load())
		}
	})

	t.Run("returns listen errors", func(t *testing.T) {
		srv := newMockHTTPServer()
		srv.listenErr = errors.New("address already in use")
		err := NewHTTPServerService(srv, 0).Serve(context.Background())
		if err == nil || !errors.Is(err, srv.listenErr) {
			t.Errorf("Serve() = %v", err)
		}
	})

	t.Run("String", func(t *testing.T) {
		if got := NewHTTPServerService(newMockHTTPServer(), 0).String(); got != "http-server" {
			t.Errorf("String() = %q", got)
		}
	})
}

type mockScheduler struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
}

func (m *mockScheduler) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	return nil
}

func (m *mockScheduler) Stop() error {
	m.stopped.Store(true)
	return nil
}

func TestSyncService(t *testing.T) {
	t.Run("starts and stops the scheduler", func(t *testing.T) {
		sched := &mockScheduler{}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := NewSyncService(sched).Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v", err)
		}
		if !sched.started.Load() || !sched.stopped.Load() {
			t.Errorf("started=%v stopped=%v", sched.started.Load(), sched.stopped.Load())
		}
	})

	t.Run("returns start errors", func(t *testing.T) {
		sched := &mockScheduler{startErr: errors.New("already running")}
		err := NewSyncService(sched).Serve(context.Background())
		if !errors.Is(err, sched.startErr) {
			t.Errorf("Serve() = %v", err)
		}
		if sched.stopped.Load() {
			t.Error("Stop called after failed Start")
		}
	})
}

type mockRouter struct {
	runErr error
	exit   bool
	closed atomic.Int32
}

func (m *mockRouter) Run(ctx context.Context) error {
	if m.exit {
		return m.runErr
	}
	<-ctx.Done()
	return nil
}

func (m *mockRouter) Close() error {
	m.closed.Add(1)
	return nil
}

func TestRouterService(t *testing.T) {
	t.Run("builds a fresh router per start", func(t *testing.T) {
		var builds atomic.Int32
		svc := NewRouterService(func() (MessageRouter, error) {
			builds.Add(1)
			return &mockRouter{exit: true}, nil
		})

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); err == nil {
				t.Fatal("router that stops on its own must report an error")
			}
		}
		if builds.Load() != 2 {
			t.Errorf("builds = %d, want 2", builds.Load())
		}
	})

	t.Run("canceled context is a clean stop", func(t *testing.T) {
		r := &mockRouter{}
		svc := NewRouterService(func() (MessageRouter, error) { return r, nil })

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v", err)
		}
		if r.closed.Load() != 1 {
			t.Errorf("Close called %d times", r.closed.Load())
		}
	})

	t.Run("run and build errors are returned", func(t *testing.T) {
		runErr := errors.New("subscribe failed")
		svc := NewRouterService(func() (MessageRouter, error) { return &mockRouter{exit: true, runErr: runErr}, nil })
		if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
			t.Errorf("Serve() = %v", err)
		}

		buildErr := errors.New("no stream")
		svc = NewRouterService(func() (MessageRouter, error) { return nil, buildErr })
		if err := svc.Serve(context.Background()); !errors.Is(err, buildErr) {
			t.Errorf("Serve() = %v", err)
		}
	})
}

type mockGC struct {
	runs atomic.Int32
	err  error
}

func (m *mockGC) RunGC() error {
	m.runs.Add(1)
	return m.err
}

func TestStoreGCService(t *testing.T) {
	gc := &mockGC{err: errors.New("value log busy")}
	svc := NewStoreGCService(gc, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if gc.runs.Load() < 2 {
		t.Errorf("GC ran %d times, want repeated runs despite errors", gc.runs.Load())
	}
	if NewStoreGCService(gc, 0).interval != 10*time.Minute {
		t.Error("default interval not applied")
	}
}
