// Package tasks implements kobot's scheduled tasks: listen set resync, store
// health checks and store maintenance.
package tasks

import (
	"log/slog"

	"github.com/edgard/kobot/internal/listen"
	"github.com/edgard/kobot/internal/metrics"
	"github.com/edgard/kobot/internal/store"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   store.Store
	Listen  *listen.Set
	Metrics *metrics.Metrics
}
