package tasks

import (
	"context"
	"fmt"
	"time"
)

// newStoreMaintenanceTask runs the backend's housekeeping.
func newStoreMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting store maintenance")
		startTime := time.Now()

		err := deps.Store.Maintain(ctx)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Store maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("store maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Store maintenance completed", "duration", duration)
		return nil
	}
}
