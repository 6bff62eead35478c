package tasks

import (
	"context"
	"fmt"
)

// newListenResyncTask merges store members into the in-memory listen set, so
// channels registered by another process sharing the store are observed here
// too. It only ever adds.
func newListenResyncTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "listen_resync")

	return func(ctx context.Context) error {
		ids, err := deps.Store.Members(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read listen store", "error", err)
			return fmt.Errorf("listen resync failed: %w", err)
		}

		added := 0
		for _, id := range ids {
			if deps.Listen.Add(id) {
				added++
			}
		}
		deps.Metrics.SetListenSize(deps.Listen.Len())

		if added > 0 {
			log.InfoContext(ctx, "Merged channels from listen store", "added", added, "total", deps.Listen.Len())
		}
		return nil
	}
}
