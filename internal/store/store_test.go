// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

type testRecord struct {
	Name   string   `json:"name"`
	Values []string `json:"values,omitempty"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []Key{
		K("GUEST#abc", "PROFILE"),
		K("IDX#EMAIL#a@example.com", "CLAIM"),
		K("RES#123", "456"),
		K("PROP", ""),
	}
	for _, k := range tests {
		if got := ParseKey(k.Bytes()); got != k {
			t.Errorf("ParseKey(%q) = %+v, want %+v", k.Bytes(), got, k)
		}
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	var rec testRecord
	found, err := s.Get(context.Background(), K("A", "B"), &rec)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected missing record")
	}
}

func TestPutGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, K("A", "B"), testRecord{Name: "first"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, K("A", "B"), testRecord{Name: "second"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var rec testRecord
	found, err := s.Get(ctx, K("A", "B"), &rec)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if rec.Name != "second" {
		t.Errorf("Name = %q, want second", rec.Name)
	}
}

func TestPutIfAbsent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	key := K("IDX#EMAIL#a@example.com", "CLAIM")

	created, err := s.PutIfAbsent(ctx, key, testRecord{Name: "winner"})
	if err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("first PutIfAbsent should create")
	}

	created, err = s.PutIfAbsent(ctx, key, testRecord{Name: "loser"})
	if err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}
	if created {
		t.Fatal("second PutIfAbsent should not create")
	}

	var rec testRecord
	if _, err := s.Get(ctx, key, &rec); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Name != "winner" {
		t.Errorf("Name = %q, want winner", rec.Name)
	}
}

func TestPutIfAbsentConcurrent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	key := K("IDX#PHONE#5551234567", "CLAIM")

	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.PutIfAbsent(ctx, key, testRecord{Name: fmt.Sprintf("w%d", i)})
			if err != nil {
				errs <- err
				return
			}
			if created {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("PutIfAbsent: %v", err)
	}
	if got := wins.Load(); got != 1 {
		t.Errorf("winners = %d, want exactly 1", got)
	}
}

func TestUpdateJSONConcurrentAccumulate(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	key := K("GUEST#g1", "PROFILE")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := UpdateJSON(ctx, s, key, func(cur *testRecord) (*testRecord, error) {
				if cur == nil {
					cur = &testRecord{Name: "g1"}
				}
				cur.Values = append(cur.Values, fmt.Sprintf("v%02d", i))
				return cur, nil
			})
			if err != nil {
				t.Errorf("UpdateJSON: %v", err)
			}
		}(i)
	}
	wg.Wait()

	var rec testRecord
	if _, err := s.Get(ctx, key, &rec); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Values) != workers {
		t.Fatalf("len(Values) = %d, want %d (lost update)", len(rec.Values), workers)
	}
	sort.Strings(rec.Values)
	for i, v := range rec.Values {
		if want := fmt.Sprintf("v%02d", i); v != want {
			t.Errorf("Values[%d] = %q, want %q", i, v, want)
		}
	}
}

func TestUpdateSkipWrite(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, K("A", "B"), func(cur []byte) ([]byte, error) {
		if cur != nil {
			t.Error("expected nil current value")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var rec testRecord
	if found, _ := s.Get(ctx, K("A", "B"), &rec); found {
		t.Error("nil result must not write a record")
	}
}

func TestUpdatePropagatesError(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	sentinel := errors.New("boom")

	err := s.Update(context.Background(), K("A", "B"), func([]byte) ([]byte, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Update error = %v, want %v", err, sentinel)
	}
}

func TestScanAndDeletePrefix(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	keys := []Key{
		K("RES#p1", "r1"),
		K("RES#p1", "r2"),
		K("RES#p10", "r3"),
		K("RES#p2", "r4"),
		K("GUEST#g1", "PROFILE"),
	}
	for _, k := range keys {
		if err := s.Put(ctx, k, testRecord{Name: k.SK}); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	var partition []string
	err := s.Scan(ctx, Partition("RES#p1"), func(k Key, _ []byte) error {
		partition = append(partition, k.SK)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(partition) != 2 || partition[0] != "r1" || partition[1] != "r2" {
		t.Errorf("partition scan = %v, want [r1 r2]", partition)
	}

	count := 0
	if err := s.Scan(ctx, PKPrefix("RES#"), func(Key, []byte) error { count++; return nil }); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 4 {
		t.Errorf("entity scan count = %d, want 4", count)
	}

	n, err := s.DeletePrefix(ctx, Partition("RES#p1"))
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	var rec testRecord
	if found, _ := s.Get(ctx, K("RES#p10", "r3"), &rec); !found {
		t.Error("DeletePrefix removed a record from another partition")
	}
}

func TestScanStopsOnError(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.Put(ctx, K("P", fmt.Sprint(i)), testRecord{})
	}
	stop := errors.New("stop")
	seen := 0
	err := s.Scan(ctx, Partition("P"), func(Key, []byte) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Scan error = %v, want stop", err)
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	var rec testRecord
	if _, err := s.Get(context.Background(), K("A", "B"), &rec); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after close = %v, want ErrClosed", err)
	}
	if _, err := s.PutIfAbsent(context.Background(), K("A", "B"), rec); !errors.Is(err, ErrClosed) {
		t.Errorf("PutIfAbsent after close = %v, want ErrClosed", err)
	}
}

func TestOpenOnDiskPersists(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "db")
	cfg.SyncWrites = false
	cfg.MemTableSize = 16 << 20
	cfg.ValueLogFileSize = 16 << 20
	ctx := context.Background()

	s, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, K("A", "B"), testRecord{Name: "kept"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	var rec testRecord
	found, err := s.Get(ctx, K("A", "B"), &rec)
	if err != nil || !found || rec.Name != "kept" {
		t.Errorf("after reopen: found=%v err=%v rec=%+v", found, err, rec)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"in memory without path", func(c *Config) { c.Path = ""; c.InMemory = true }, false},
		{"missing path", func(c *Config) { c.Path = "" }, true},
		{"discard ratio zero", func(c *Config) { c.GCDiscardRatio = 0 }, true},
		{"discard ratio one", func(c *Config) { c.GCDiscardRatio = 1 }, true},
		{"no conflict retries", func(c *Config) { c.MaxConflictRetries = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
