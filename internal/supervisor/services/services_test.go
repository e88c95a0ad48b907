// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	stop        chan struct{}
	shutdowns   atomic.Int32
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
	m.shutdowns.Add(1)
	close(m.stop)
	return m.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newMockHTTPServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
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
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	srv := newMockHTTPServer()
	srv.listenErr = errors.New("address already in use")

	err := NewHTTPServerService(srv, 0).Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerService_String(t *testing.T) {
	if got := NewHTTPServerService(newMockHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

func TestMaintenanceService_RunOnce(t *testing.T) {
	var order []string
	tasks := []MaintenanceTask{
		{Name: "limiter", Run: func(context.Context) error { order = append(order, "limiter"); return nil }},
		{Name: "store", Run: func(context.Context) error { order = append(order, "store"); return errors.New("disk full") }},
		{Name: "panicky", Run: func(context.Context) error { panic("boom") }},
		{Name: "batches", Run: func(context.Context) error { order = append(order, "batches"); return nil }},
	}
	svc := NewMaintenanceService(time.Hour, tasks, zerolog.Nop())

	if failed := svc.RunOnce(context.Background()); failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if len(order) != 3 || order[2] != "batches" {
		t.Errorf("tasks ran %v; a failing task must not stop later ones", order)
	}
}

func TestMaintenanceService_Serve(t *testing.T) {
	var runs atomic.Int32
	svc := NewMaintenanceService(5*time.Millisecond, []MaintenanceTask{
		{Name: "count", Run: func(context.Context) error { runs.Add(1); return nil }},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if runs.Load() < 2 {
		t.Errorf("task ran %d times, want at least 2", runs.Load())
	}
}

func TestMaintenanceService_DefaultInterval(t *testing.T) {
	if svc := NewMaintenanceService(0, nil, zerolog.Nop()); svc.interval != time.Minute {
		t.Errorf("interval = %v", svc.interval)
	}
}
