// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"
)

// runClock folds elapsed time into the monotonic clock every
// syncInterval and writes it to the store every persistInterval. On
// cancellation it writes once more and returns.
func (d *Daemon) runClock(ctx context.Context, syncInterval, persistInterval time.Duration) error {
	syncTicker := d.clock.NewTicker(syncInterval)
	defer syncTicker.Stop()
	persistTicker := d.clock.NewTicker(persistInterval)
	defer persistTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return d.persistClock(context.WithoutCancel(ctx))
		case <-syncTicker.C:
			d.monotonic.Synchronize()
		case <-persistTicker.C:
			if err := d.persistClock(ctx); err != nil {
				// The next tick retries; only the time since the last
				// successful write is at risk.
				d.logger.Error("persisting monotonic clock failed", "error", err)
			}
		}
	}
}

func (d *Daemon) persistClock(ctx context.Context) error {
	now := d.monotonic.Synchronize()
	if err := d.store.SaveClock(ctx, now); err != nil {
		return err
	}
	d.logger.Debug("monotonic clock persisted", "monotonic_now", uint64(now))
	return nil
}
