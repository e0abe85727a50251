package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/logger"
	"github.com/wb-go/wbf/retry"

	"github.com/dsavch/reskeeper/internal/domain"
)

const defaultChannelPrefix = "reskeeper:events"

// RedisSink publishes state-change events to Redis pub/sub for external UI
// layers: one firehose channel plus one channel per category. Publish
// failures are logged and retried, never surfaced to the engine.
type RedisSink struct {
	rdb      *redis.Client
	prefix   string
	strategy retry.Strategy
	logger   logger.Logger
}

type RedisSinkOption func(*RedisSink)

func WithChannelPrefix(prefix string) RedisSinkOption {
	return func(s *RedisSink) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithRetryStrategy(strategy retry.Strategy) RedisSinkOption {
	return func(s *RedisSink) {
		s.strategy = strategy
	}
}

func NewRedisSink(rdb *redis.Client, log logger.Logger, opts ...RedisSinkOption) *RedisSink {
	s := &RedisSink{
		rdb:    rdb,
		prefix: defaultChannelPrefix,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    100 * time.Millisecond,
			Backoff:  2,
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSink) Publish(ctx context.Context, events []domain.StateChange) {
	if s.rdb == nil || len(events) == 0 {
		return
	}

	err := retry.Do(func() error {
		pipe := s.rdb.Pipeline()
		for _, ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			pipe.Publish(ctx, s.prefix, payload)
			if ev.Category != "" {
				pipe.Publish(ctx, s.prefix+":"+ev.Category, payload)
			}
		}
		_, err := pipe.Exec(ctx)
		return err
	}, s.strategy)
	if err != nil {
		s.logger.Error("failed to publish events to redis",
			logger.Int("events", len(events)),
			logger.String("error", err.Error()),
		)
	}
}
