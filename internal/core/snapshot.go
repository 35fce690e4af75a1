package core

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SnapshotHolder keeps the current list/policy snapshot and refreshes it
// from the store on a fixed interval. Reads are lock-free; a reload swaps
// the whole pointer atomically so no evaluation ever observes a partially
// updated rule set. A failed reload keeps the last-known-good snapshot.
type SnapshotHolder struct {
	store       ListPolicyStore
	logger      *zap.Logger
	refreshFreq time.Duration
	current     atomic.Pointer[Snapshot]
	stopCh      chan struct{}
}

// NewSnapshotHolder creates a holder and performs the initial load. The
// initial load must succeed: starting without any snapshot would leave
// every email unscreened.
func NewSnapshotHolder(ctx context.Context, store ListPolicyStore, logger *zap.Logger, refreshFreq time.Duration) (*SnapshotHolder, error) {
	h := &SnapshotHolder{
		store:       store,
		logger:      logger,
		refreshFreq: refreshFreq,
		stopCh:      make(chan struct{}),
	}
	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, &StoreError{Op: "load snapshot", Err: err}
	}
	h.current.Store(snap)
	return h, nil
}

// Current returns the snapshot to evaluate against. The returned value is
// immutable and safe for concurrent use.
func (h *SnapshotHolder) Current() *Snapshot {
	return h.current.Load()
}

// Reload fetches a fresh snapshot. On failure the previous snapshot stays
// in place and a warning is logged.
func (h *SnapshotHolder) Reload(ctx context.Context) {
	snap, err := h.store.LoadSnapshot(ctx)
	if err != nil {
		h.logger.Warn("Failed to reload list/policy snapshot, keeping last known good",
			zap.Error(err),
			zap.Time("loaded_at", h.Current().LoadedAt()))
		return
	}
	h.current.Store(snap)
	wl, bl, pol := snap.Len()
	h.logger.Debug("Reloaded list/policy snapshot",
		zap.Int("whitelist", wl),
		zap.Int("blacklist", bl),
		zap.Int("policies", pol))
}

// Start begins the periodic refresh task.
func (h *SnapshotHolder) Start() {
	go func() {
		ticker := time.NewTicker(h.refreshFreq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.Reload(context.Background())
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends the periodic refresh task.
func (h *SnapshotHolder) Stop() {
	close(h.stopCh)
}
