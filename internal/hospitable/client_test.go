// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/guestlink/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.HospitableConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
		PerPage: 2,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseDelay = time.Millisecond
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(&config.HospitableConfig{Token: "  "}); !errors.Is(err, ErrMissingToken) {
		t.Errorf("got %v, want ErrMissingToken", err)
	}
}

func TestForEachReservationPage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != reservationsPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q["properties[]"]; len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
			t.Errorf("properties[] = %v", got)
		}
		if got := q.Get("include"); got != "guest,review,financials,properties" {
			t.Errorf("include = %q", got)
		}
		if q.Get("start_date") != "2024-01-01" || q.Get("end_date") != "2024-12-31" {
			t.Errorf("window = %s..%s", q.Get("start_date"), q.Get("end_date"))
		}

		page, _ := strconv.Atoi(q.Get("page"))
		next := `"/v2/reservations?page=2"`
		if page == 2 {
			next = "null"
		}
		fmt.Fprintf(w, `{"data":[{"id":"R%d-a"},{"id":"R%d-b"}],"meta":{"current_page":%d,"last_page":2},"links":{"next":%s}}`,
			page, page, page, next)
	})

	var ids []string
	err := c.ForEachReservationPage(context.Background(), ReservationsQuery{
		PropertyIDs: []string{"p1", "p2"},
		StartDate:   "2024-01-01",
		EndDate:     "2024-12-31",
	}, func(_ int, rows []Reservation) error {
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachReservationPage: %v", err)
	}
	want := []string{"R1-a", "R1-b", "R2-a", "R2-b"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestForEachReservationPage_StopsWithoutNextLink(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"data":[{"id":"R1"}],"meta":{"total_pages":5},"links":{}}`)
	})

	err := c.ForEachReservationPage(context.Background(), ReservationsQuery{}, func(int, []Reservation) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestListProperties(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data":[{"id":"p1","name":"Cabin"},{"id":"p2","name":"Loft"}],"meta":{"current_page":1,"total_pages":2}}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"id":"p3","public_name":"Beach House"}],"meta":{"current_page":2,"total_pages":2}}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	props, err := c.ListProperties(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 3 || props[2].ID != "p3" {
		t.Fatalf("props = %+v", props)
	}
	if got := MapProperty(&props[2]).Name; got != "Beach House" {
		t.Errorf("name fallback = %q", got)
	}
}

func TestRetryOn429(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})

	if _, err := c.ListProperties(context.Background()); err != nil {
		t.Fatalf("ListProperties: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryOn429_GivesUp(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.maxRetries = 2

	_, err := c.ListProperties(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("got %v, want 429 StatusError", err)
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := c.ListProperties(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %T %v", err, err)
	}
	if se.StatusCode != http.StatusForbidden || se.Body != "nope" {
		t.Errorf("status error = %+v", se)
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		if _, err := c.ListProperties(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := c.ListProperties(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("got %v, want open breaker", err)
	}
	if calls.Load() != 5 {
		t.Errorf("server saw %d calls, want 5", calls.Load())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < 8; i++ {
		_, err := c.ListProperties(context.Background())
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened after %d client errors", i)
		}
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header   string
		fallback time.Duration
		want     time.Duration
	}{
		{"", 4 * time.Second, 4 * time.Second},
		{"3", time.Second, 3 * time.Second},
		{"garbage", time.Second, time.Second},
		{"-5", time.Second, time.Second},
		{"100000", time.Second, maxRetryDelay},
		{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), time.Second, 0},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.header, tt.fallback); got != tt.want {
			t.Errorf("retryDelay(%q, %v) = %v, want %v", tt.header, tt.fallback, got, tt.want)
		}
	}
}
