// Package store persists the listen set. The durable store is the source of
// truth; the in-memory mirror is rebuilt from it on every start.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/edgard/kobot/internal/gateway"
)

// ListenKey is the name of the set holding listened channel ids.
const ListenKey = "listen"

// ErrUnsupportedScheme is returned by Open for addresses it cannot route.
var ErrUnsupportedScheme = errors.New("unsupported store address scheme")

// Store defines the operations kobot needs from its durable set store.
// Methods accept context.Context for cancellation.
type Store interface {
	// Members returns every channel id in the listen set.
	Members(ctx context.Context) ([]gateway.ChannelID, error)

	// Add inserts id into the listen set and reports whether it was newly
	// inserted. Concurrent calls for the same id observe added=true exactly once.
	Add(ctx context.Context, id gateway.ChannelID) (added bool, err error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Maintain runs backend housekeeping. It may be a no-op.
	Maintain(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// Open connects to the store at address. redis:// and rediss:// addresses use
// Redis; postgres:// addresses use PostgreSQL; sqlite:// and file: addresses
// use an SQLite database file.
func Open(ctx context.Context, address string, logger *slog.Logger) (Store, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid store address: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss", "unix":
		return NewRedis(address, logger)
	case "postgres", "postgresql":
		return NewPostgres(ctx, address, logger)
	case "sqlite":
		return NewSQLite(ctx, strings.TrimPrefix(address, u.Scheme+"://"), logger)
	case "file":
		return NewSQLite(ctx, address, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func parseMembers(raw []string) ([]gateway.ChannelID, error) {
	ids := make([]gateway.ChannelID, 0, len(raw))
	for _, s := range raw {
		id, err := gateway.ParseChannelID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func discardIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
