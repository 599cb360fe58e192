// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestPublisher_SetsMsgID(t *testing.T) {
	t.Parallel()
	rec := newRecordingPublisher()
	pub := WrapPublisher(rec, nil)

	custom := message.NewMessage("m2", nil)
	custom.Metadata.Set(natsgo.MsgIdHdr, "dedupe-key")
	if err := pub.Publish("guest.link", message.NewMessage("m1", nil), custom); err != nil {
		t.Fatal(err)
	}

	msgs := rec.messages("guest.link")
	if got := msgs[0].Metadata.Get(natsgo.MsgIdHdr); got != "m1" {
		t.Errorf("Nats-Msg-Id = %q, want message UUID", got)
	}
	if got := msgs[1].Metadata.Get(natsgo.MsgIdHdr); got != "dedupe-key" {
		t.Errorf("existing Nats-Msg-Id overwritten: %q", got)
	}
	if pub.BreakerState() != "none" {
		t.Errorf("BreakerState = %q", pub.BreakerState())
	}
}

func TestPublisher_BreakerOpens(t *testing.T) {
	t.Parallel()
	rec := newRecordingPublisher()
	rec.err = errors.New("nats: connection closed")

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test-publisher",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	pub := WrapPublisher(rec, cb)

	for i := 0; i < 2; i++ {
		if err := pub.Publish("t", message.NewMessage("m", nil)); err == nil {
			t.Fatal("expected publish failure")
		}
	}
	if err := pub.Publish("t", message.NewMessage("m", nil)); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("got %v, want ErrOpenState", err)
	}
	if rec.calls != 2 {
		t.Errorf("underlying publisher called %d times while open", rec.calls)
	}
	if pub.BreakerState() != "open" {
		t.Errorf("BreakerState = %q", pub.BreakerState())
	}
}

func TestPublisher_Close(t *testing.T) {
	t.Parallel()
	pub := WrapPublisher(newRecordingPublisher(), nil)
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := pub.Publish("t", message.NewMessage("m", nil)); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("got %v, want ErrPublisherClosed", err)
	}
}
