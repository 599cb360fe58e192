// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"testing"
	"time"

	"github.com/tomtom215/guestlink/internal/config"
)

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		NATS: config.NATSConfig{
			URL:              "nats://queue:4222",
			StoreDir:         "/tmp/js",
			StreamName:       "GL_TEST",
			StreamRetention:  time.Hour,
			DurableName:      "linker-a",
			QueueGroup:       "group-a",
			SubscribersCount: 2,
			AckWaitTimeout:   10 * time.Second,
		},
		Queue: config.QueueConfig{
			LinkTopic:            "l",
			WebhookTopic:         "w",
			PoisonTopic:          "p",
			RetryCount:           3,
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     time.Minute,
			ThrottlePerSecond:    50,
			CloseTimeout:         5 * time.Second,
			PublishBatchSize:     25,
		},
	}

	s := SettingsFromConfig(cfg)

	if got := s.Stream.Subjects; len(got) != 3 || got[0] != "l" || got[1] != "w" || got[2] != "p" {
		t.Errorf("stream subjects = %v", got)
	}
	if s.Stream.Name != "GL_TEST" || s.Stream.MaxAge != time.Hour {
		t.Errorf("stream = %+v", s.Stream)
	}
	if s.Subscriber.StreamName != "GL_TEST" || s.Subscriber.DurableName != "linker-a" || s.Subscriber.SubscribersCount != 2 {
		t.Errorf("subscriber = %+v", s.Subscriber)
	}
	if s.Router.RetryMaxRetries != 3 || s.Router.PoisonQueueTopic != "p" || s.Router.ThrottlePerSecond != 50 {
		t.Errorf("router = %+v", s.Router)
	}
	if s.Server.StoreDir != "/tmp/js" || s.Server.JetStreamMaxMem != DefaultServerConfig().JetStreamMaxMem {
		t.Errorf("server = %+v", s.Server)
	}
	if s.BatchSize != 25 {
		t.Errorf("BatchSize = %d", s.BatchSize)
	}

	moved := s.WithURL("nats://127.0.0.1:41000")
	if moved.Publisher.URL != "nats://127.0.0.1:41000" || moved.Subscriber.URL != "nats://127.0.0.1:41000" {
		t.Errorf("WithURL did not update clients: %+v %+v", moved.Publisher, moved.Subscriber)
	}
	if s.Publisher.URL != "nats://queue:4222" {
		t.Error("WithURL mutated the original settings")
	}
}

func TestTopicsSubjects(t *testing.T) {
	t.Parallel()
	if got := (Topics{Link: "a", Poison: "c"}).Subjects(); len(got) != 2 {
		t.Errorf("Subjects = %v, want empty topics skipped", got)
	}
}
