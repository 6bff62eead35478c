package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthFunc reports whether kobot's dependencies are healthy.
type HealthFunc func(ctx context.Context) error

const shutdownTimeout = 5 * time.Second

// NewRouter returns the routes served by the metrics listener.
func NewRouter(m *Metrics, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts the server down.
func Serve(ctx context.Context, addr string, m *Metrics, health HealthFunc, logger *slog.Logger) error {
	log := logger.With("component", "metrics_server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(m, health),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting metrics listener", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics listener failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down metrics listener", "error", err)
		return err
	}
	log.Info("Metrics listener stopped.")
	return nil
}
