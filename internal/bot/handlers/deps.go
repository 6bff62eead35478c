package handlers

import (
	"log/slog"

	"github.com/edgard/kobot/internal/config"
	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/listen"
	"github.com/edgard/kobot/internal/metrics"
	"github.com/edgard/kobot/internal/store"
)

// HandlerDeps provides dependencies for gateway event handlers. It is built
// once at connect time and shared read-only by every event.
type HandlerDeps struct {
	Logger   *slog.Logger
	Messages config.MessagesConfig
	Identity gateway.Identity
	Gateway  gateway.Client
	Store    store.Store
	Listen   *listen.Set
	Metrics  *metrics.Metrics
}
