// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/metrics"
	"github.com/tomtom215/guestlink/internal/models"
)

// backfillFlushSize is how many scanned reservations are buffered before
// they are handed to the enqueuer, which splits them into batches.
const backfillFlushSize = 100

// Backfill re-enqueues stored reservations as backfill-reservation link
// messages. Linking is idempotent, so running it twice is harmless.
type Backfill struct {
	repo     Repository
	enqueuer LinkEnqueuer
	mu       sync.Mutex
}

// NewBackfill creates a backfill runner.
func NewBackfill(repo Repository, enqueuer LinkEnqueuer) *Backfill {
	return &Backfill{repo: repo, enqueuer: enqueuer}
}

// Run scans the store and publishes one link message per reservation: only
// unlinked reservations unless req.All is set. A publish failure stops the
// run; the counts reflect what was published before it.
func (b *Backfill) Run(ctx context.Context, req models.BackfillRequest) (result *models.BackfillResult, err error) {
	if !b.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer b.mu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordSyncOperation(OperationBackfill, time.Since(start), err) }()

	result = &models.BackfillResult{}
	buf := make([]*models.Reservation, 0, backfillFlushSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		enq, err := b.enqueuer.Enqueue(ctx, eventprocessor.MessageTypeBackfillReservation, buf)
		result.Published += enq.Published
		result.Batches += enq.Batches
		metrics.SyncRecordsProcessed.WithLabelValues(OperationBackfill, "enqueued").Add(float64(enq.Published))
		buf = buf[:0]
		if err != nil {
			return fmt.Errorf("publish backfill messages: %w", err)
		}
		return nil
	}

	visit := func(res *models.Reservation) error {
		result.Scanned++
		buf = append(buf, res)
		if len(buf) < backfillFlushSize {
			return nil
		}
		return flush()
	}

	scan := b.repo.ScanUnlinked
	if req.All {
		scan = b.repo.Scan
	}
	if err := scan(ctx, visit); err != nil {
		return result, err
	}
	if err := flush(); err != nil {
		return result, err
	}

	logging.Ctx(ctx).Info().
		Bool("all", req.All).
		Int("scanned", result.Scanned).
		Int("published", result.Published).
		Int("batches", result.Batches).
		Dur("duration", time.Since(start)).
		Msg("Backfill completed")
	return result, nil
}
