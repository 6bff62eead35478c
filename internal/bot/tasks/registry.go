package tasks

import (
	"context"

	"github.com/edgard/kobot/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context is
// cancelled when the scheduler shuts down.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in the
// scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskListenResync:     newListenResyncTask(deps),
		config.TaskStorePing:        newStorePingTask(deps),
		config.TaskStoreMaintenance: newStoreMaintenanceTask(deps),
	}

	deps.Logger.Debug("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
