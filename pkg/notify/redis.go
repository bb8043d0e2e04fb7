package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream events are appended to when none is configured.
const DefaultStream = "img2pgm:events"

// RedisStream appends events to a Redis stream under the "data" field.
type RedisStream struct {
	client *redis.Client
	stream string
}

func NewRedisStream(ctx context.Context, addr, stream string) (*RedisStream, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{client: client, stream: stream}, nil
}

func (r *RedisStream) Notify(ctx context.Context, e Event) error {
	b, err := e.Marshal()
	if err != nil {
		return err
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{"data": b},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

func (r *RedisStream) Close() error { return r.client.Close() }
