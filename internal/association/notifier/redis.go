package notifier

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/options"
)

var _ core.StreamSink = (*RedisStream)(nil)

// Stream entry fields.
const (
	StreamFieldKey  = "key"
	StreamFieldData = "data"
)

// RedisStream appends messages to a Redis stream with XADD.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream connects to Redis and verifies the connection.
func NewRedisStream(ctx context.Context, opts *options.RedisOptions) (*RedisStream, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Info("Connected to Redis stream", "addr", opts.Addr, "db", opts.DB, "stream", opts.Stream)
	return NewRedisStreamWithClient(client, opts.Stream, opts.MaxLen), nil
}

// NewRedisStreamWithClient wraps an existing client.
func NewRedisStreamWithClient(client *redis.Client, stream string, maxLen int64) *RedisStream {
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStream) Append(ctx context.Context, key string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			StreamFieldKey:  key,
			StreamFieldData: payload,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("XADD %s: %w", s.stream, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStream) Close() error {
	return s.client.Close()
}
