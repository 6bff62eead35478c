package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/edgard/kobot/internal/gateway"
)

// redisStore keeps the listen set in a Redis set.
type redisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedis creates a Redis-backed Store from a redis:// URL. No connection is
// made until the first command.
func NewRedis(address string, logger *slog.Logger) (Store, error) {
	opts, err := redis.ParseURL(address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return newRedisStore(redis.NewClient(opts), logger), nil
}

func newRedisStore(client *redis.Client, logger *slog.Logger) *redisStore {
	return &redisStore{
		client: client,
		key:    ListenKey,
		logger: discardIfNil(logger).With("component", "store", "backend", "redis"),
	}
}

func (s *redisStore) Members(ctx context.Context) ([]gateway.ChannelID, error) {
	raw, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", s.key, err)
	}
	ids, err := parseMembers(raw)
	if err != nil {
		return nil, fmt.Errorf("redis set %s holds an invalid member: %w", s.key, err)
	}
	s.logger.DebugContext(ctx, "Loaded listen set", "count", len(ids))
	return ids, nil
}

func (s *redisStore) Add(ctx context.Context, id gateway.ChannelID) (bool, error) {
	n, err := s.client.SAdd(ctx, s.key, id.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis sadd %s %s: %w", s.key, id, err)
	}
	return n == 1, nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Maintain is a no-op; Redis manages its own persistence.
func (s *redisStore) Maintain(ctx context.Context) error {
	s.logger.DebugContext(ctx, "No maintenance required for redis backend")
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
