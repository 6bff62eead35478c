// Package bot implements kobot's session lifecycle: identity and listen set
// loading at startup, the gateway connection, scheduled tasks and the metrics
// listener.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/kobot/internal/bot/handlers"
	"github.com/edgard/kobot/internal/bot/tasks"
	"github.com/edgard/kobot/internal/config"
	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/listen"
	"github.com/edgard/kobot/internal/logger"
	"github.com/edgard/kobot/internal/metrics"
	"github.com/edgard/kobot/internal/store"
)

// Bot owns one platform session and the state shared by its handlers.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	gw        gateway.Client
	store     store.Store
	metrics   *metrics.Metrics
	identity  gateway.Identity
	listen    *listen.Set
	scheduler *Scheduler
}

// Initialize resolves the bot identity through gw and loads the listen set
// from st. It fails with ErrIdentityFetch or ErrStoreUnavailable. Nothing is
// retried.
func Initialize(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	gw gateway.Client,
	st store.Store,
	m *metrics.Metrics,
) (*Bot, error) {
	log := logger.With("component", "bot")

	identity, err := gw.Identity(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityFetch, err)
	}
	log.Info("Fetched bot identity", "bot_id", identity.BotID, "bot_name", identity.BotName, "owner_id", identity.OwnerID)

	ids, err := st.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	set := listen.New(ids...)
	m.SetListenSize(set.Len())
	m.SetStoreUp(true)
	log.Info("Loaded listen set", "channels", set.Len())

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:  logger,
		Store:   st,
		Listen:  set,
		Metrics: m,
	})
	scheduler, err := NewScheduler(logger, &cfg.Scheduler, taskMap)
	if err != nil {
		return nil, err
	}

	return &Bot{
		logger:    log,
		cfg:       cfg,
		gw:        gw,
		store:     st,
		metrics:   m,
		identity:  identity,
		listen:    set,
		scheduler: scheduler,
	}, nil
}

// Identity returns the identity resolved at startup.
func (b *Bot) Identity() gateway.Identity {
	return b.identity
}

// Listen returns the in-memory listen set.
func (b *Bot) Listen() *listen.Set {
	return b.listen
}

// Connect runs the gateway with kobot's handler attached and blocks until the
// connection ends. It returns nil once ctx is cancelled.
func (b *Bot) Connect(ctx context.Context) error {
	handler := handlers.NewHandler(handlers.HandlerDeps{
		Logger:   b.logger.With("component", "handlers"),
		Messages: b.cfg.Messages,
		Identity: b.identity,
		Gateway:  b.gw,
		Store:    b.store,
		Listen:   b.listen,
		Metrics:  b.metrics,
	})
	consumer := gateway.Chain(handler, logger.Middleware(b.logger))

	b.logger.Info("Connecting to gateway...", "platform", b.cfg.Platform)
	err := b.gw.Run(ctx, consumer)
	if ctx.Err() != nil {
		b.logger.Info("Gateway connection closed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGatewayConnect, err)
	}
	return fmt.Errorf("%w: connection ended unexpectedly", ErrGatewayConnect)
}

// Run connects to the gateway and runs the scheduler and, when configured,
// the metrics listener until ctx is cancelled or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.Connect(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if addr := b.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			return metrics.Serve(gCtx, addr, b.metrics, b.store.Ping, b.logger)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully")
	return nil
}
