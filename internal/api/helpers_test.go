// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/reservation"
	"github.com/tomtom215/guestlink/internal/store"
)

const testSecret = "0123456789abcdef-webhook"

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []*message.Message
	err    error
	state  string
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for range msgs {
		p.topics = append(p.topics, topic)
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) BreakerState() string { return p.state }

func (p *recordingPublisher) published() ([]string, []*message.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...), append([]*message.Message(nil), p.msgs...)
}

type fakeSync struct {
	mu         sync.Mutex
	requests   []models.SyncRequest
	result     *models.SyncResult
	properties int
	err        error
	last       time.Time
}

func (f *fakeSync) SyncProperties(context.Context) (int, error) {
	return f.properties, f.err
}

func (f *fakeSync) SyncReservations(_ context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSync) LastSync() (time.Time, *models.SyncResult) {
	return f.last, f.result
}

type fakeBackfill struct {
	mu       sync.Mutex
	requests []models.BackfillRequest
	result   *models.BackfillResult
	err      error
}

func (f *fakeBackfill) Run(_ context.Context, req models.BackfillRequest) (*models.BackfillResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.result, f.err
}

type apiEnv struct {
	repo     *reservation.Repository
	guests   *guest.Store
	linker   *guest.Linker
	pub      *recordingPublisher
	sync     *fakeSync
	backfill *fakeBackfill
	batch    *eventprocessor.Driver
	cfg      *config.Config
	server   http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Queue: config.QueueConfig{WebhookTopic: "webhook.events"},
		Webhook: config.WebhookConfig{
			Enabled:      true,
			Secret:       testSecret,
			MaxBodyBytes: 4096,
		},
		Security: config.SecurityConfig{RateLimitDisabled: true},
	}
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &apiEnv{
		repo:     reservation.NewRepository(db),
		guests:   guest.NewStore(db),
		pub:      &recordingPublisher{state: "closed"},
		sync:     &fakeSync{result: &models.SyncResult{Properties: 2, Upserted: 5}},
		backfill: &fakeBackfill{result: &models.BackfillResult{Scanned: 3, Published: 3, Batches: 1}},
		cfg:      testConfig(),
	}
	env.linker = guest.NewLinker(guest.NewIdentityIndex(db), env.guests, env.repo)
	env.batch = eventprocessor.NewDriver(eventprocessor.HandlerLink, eventprocessor.NewLinkHandler(env.linker).Handle)
	env.rebuild()
	return env
}

// rebuild recreates the HTTP handler after dependencies were changed.
func (e *apiEnv) rebuild() {
	deps := Dependencies{
		Guests:       e.guests,
		Reservations: e.repo,
		Publisher:    e.pub,
		WebhookTopic: e.cfg.Queue.WebhookTopic,
		Config:       e.cfg,
	}
	if e.sync != nil {
		deps.Sync = e.sync
	}
	if e.backfill != nil {
		deps.Backfill = e.backfill
	}
	if e.batch != nil {
		deps.Batch = e.batch
	}
	mw := NewChiMiddleware(ChiMiddlewareConfigFromSecurity(e.cfg.Security))
	e.server = NewRouter(NewHandler(deps), mw).SetupChi()
}

// storeAndLink stores a reservation, indexes its conversation and links it.
func (e *apiEnv) storeAndLink(t *testing.T, res *models.Reservation) string {
	t.Helper()
	ctx := context.Background()
	stored, err := e.repo.Upsert(ctx, res)
	if err != nil {
		t.Fatalf("Upsert %s: %v", res.ID, err)
	}
	if _, err := e.repo.EnsureConversationIndex(ctx, stored); err != nil {
		t.Fatalf("EnsureConversationIndex %s: %v", res.ID, err)
	}
	result, err := e.linker.Link(ctx, stored)
	if err != nil {
		t.Fatalf("Link %s: %v", res.ID, err)
	}
	return result.Pointer
}

func (e *apiEnv) do(t *testing.T, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\n%s", err, rec.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec, nil)
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("not an error envelope: %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

func testReservation(id, propertyID, email string) *models.Reservation {
	return &models.Reservation{
		ID:          id,
		PropertyID:  propertyID,
		ArrivalDate: "2026-05-01",
		Guest: models.ReservationGuest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     email,
		},
	}
}
