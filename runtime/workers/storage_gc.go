package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StorageGCWorker runs Badger value-log garbage collection on a timer.
// This is what actually reclaims space from expired user records and
// overwritten room mirrors; Badger only drops TTL'd entries lazily.
type StorageGCWorker struct {
	db       *badger.DB
	interval time.Duration
	log      *slog.Logger
}

func NewStorageGCWorker(db *badger.DB, interval time.Duration, log *slog.Logger) *StorageGCWorker {
	return &StorageGCWorker{db: db, interval: interval, log: log}
}

func (w *StorageGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// One rewrite per tick; ErrNoRewrite just means nothing to do.
			err := w.db.RunValueLogGC(0.5)
			switch {
			case err == nil:
				w.log.Debug("Value log GC rewrote a file")
			case errors.Is(err, badger.ErrNoRewrite):
			default:
				w.log.Warn("Value log GC failed", "error", err)
			}
		}
	}
}
