package tasks

import (
	"context"
	"fmt"
	"time"
)

const pingTimeout = 5 * time.Second

// newStorePingTask checks that the store is reachable and records the result.
func newStorePingTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_ping")

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			deps.Metrics.SetStoreUp(false)
			log.WarnContext(ctx, "Store unreachable", "error", err)
			return fmt.Errorf("store ping failed: %w", err)
		}

		deps.Metrics.SetStoreUp(true)
		return nil
	}
}
