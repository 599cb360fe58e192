// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/logging"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")

	// ErrConflictRetriesExhausted means a transaction kept losing to
	// concurrent writers on the same keys.
	ErrConflictRetriesExhausted = errors.New("store transaction conflict retries exhausted")
)

// Store is a single-table key-value store on top of badger.
//
// Every record is a JSON document addressed by Key. Writes that must not
// clobber concurrent writers go through PutIfAbsent or Update: both run in a
// serializable badger transaction and are re-run when badger reports a
// conflict, so a re-run always observes the competing commit.
type Store struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the store described by cfg.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Store opened")

	return &Store{db: db, config: *cfg}, nil
}

// OpenInMemory opens an empty in-memory store with default settings.
func OpenInMemory() (*Store, error) {
	cfg := DefaultConfig()
	cfg.InMemory = true
	cfg.SyncWrites = false
	cfg.Compression = false
	cfg.MemTableSize = 16 << 20
	return Open(&cfg)
}

func (s *Store) checkOpen(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ctx.Err()
}

// Get decodes the record at key into out. It reports false, with no error,
// when the record does not exist.
func (s *Store) Get(ctx context.Context, key Key, out any) (bool, error) {
	defer observe("get", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return false, err
	}

	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Bytes())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return found, nil
}

// Put writes value at key unconditionally.
func (s *Store) Put(ctx context.Context, key Key, value any) error {
	defer observe("put", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.Bytes(), data)
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// PutIfAbsent writes value at key only when no record exists there and
// reports whether this call created it. Exactly one of any number of
// concurrent callers for the same key observes true.
func (s *Store) PutIfAbsent(ctx context.Context, key Key, value any) (bool, error) {
	defer observe("put_if_absent", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return false, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	created := false
	err = s.retryOnConflict(ctx, "put_if_absent", func() error {
		created = false
		return s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key.Bytes())
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			created = true
			return txn.Set(key.Bytes(), data)
		})
	})
	if err != nil {
		return false, fmt.Errorf("put if absent %s: %w", key, err)
	}
	if !created {
		conditionalMisses.Inc()
	}
	return created, nil
}

// Update runs a read-modify-write on the raw record at key. fn receives the
// current bytes (nil when absent) and returns the bytes to store; returning
// nil bytes leaves the record untouched. fn may run more than once and must
// not have side effects.
func (s *Store) Update(ctx context.Context, key Key, fn func(current []byte) ([]byte, error)) error {
	defer observe("update", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	err := s.retryOnConflict(ctx, "update", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get(key.Bytes())
			switch {
			case err == nil:
				if current, err = item.ValueCopy(nil); err != nil {
					return err
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}

			next, err := fn(current)
			if err != nil || next == nil {
				return err
			}
			return txn.Set(key.Bytes(), next)
		})
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// UpdateJSON is Update for JSON documents of type T. fn receives nil when the
// record does not exist and returns the value to store, or nil to skip the write.
func UpdateJSON[T any](ctx context.Context, s *Store, key Key, fn func(current *T) (*T, error)) error {
	return s.Update(ctx, key, func(raw []byte) ([]byte, error) {
		var current *T
		if raw != nil {
			current = new(T)
			if err := json.Unmarshal(raw, current); err != nil {
				return nil, fmt.Errorf("unmarshal: %w", err)
			}
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func (s *Store) retryOnConflict(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; attempt < s.config.MaxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		conflictRetries.WithLabelValues(op).Inc()
	}
	return ErrConflictRetriesExhausted
}

// Scan calls fn for every record whose encoded key starts with prefix, in key
// order. Returning an error from fn stops the scan and is returned.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key Key, value []byte) error) error {
	defer observe("scan", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", item.Key(), err)
			}
			if err := fn(ParseKey(item.KeyCopy(nil)), val); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePrefix removes every record whose encoded key starts with prefix and
// returns how many were removed.
func (s *Store) DeletePrefix(ctx context.Context, prefix []byte) (int, error) {
	defer observe("delete_prefix", time.Now())
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect keys: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", ParseKey(k), err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return len(keys), nil
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
func (s *Store) RunGC() error {
	if err := s.checkOpen(context.Background()); err != nil {
		return err
	}
	if s.config.InMemory {
		return nil
	}

	rewrites := 0
	for {
		err := s.db.RunValueLogGC(s.config.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			gcRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("run value log gc: %w", err)
		}
		rewrites++
	}
	gcRuns.WithLabelValues("ok").Inc()
	logging.Debug().Int("rewrites", rewrites).Msg("Store value log GC finished")
	return nil
}

// Close flushes and closes badger, waiting at most CloseTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.db.Close() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close badger: %w", err)
		}
		logging.Info().Msg("Store closed")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("badger close timed out after %v", timeout)
	}
}
