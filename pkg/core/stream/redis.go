// Package stream forwards debate events to Redis streams so other processes
// can follow a debate without holding an SSE connection.
package stream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"agentic_debate/pkg/core/debate"

	"github.com/redis/go-redis/v9"
)

const DefaultStreamKey = "debate:events"

// RedisSink appends every record to a Redis stream with XADD. It implements
// debate.EventSink.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

var _ debate.EventSink = (*RedisSink)(nil)

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisSink writes to key, trimming the stream to roughly maxLen entries
// when maxLen is positive.
func NewRedisSink(client *redis.Client, key string, maxLen int64) *RedisSink {
	if key == "" {
		key = DefaultStreamKey
	}
	return &RedisSink{client: client, key: key, maxLen: maxLen}
}

// Publish appends r to the stream.
func (s *RedisSink) Publish(ctx context.Context, r debate.Record) error {
	args := &redis.XAddArgs{
		Stream: s.key,
		Values: Values(r),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

// Values flattens a record into stream entry fields.
func Values(r debate.Record) map[string]any {
	return map[string]any{
		"debate_id":  r.DebateID,
		"seq":        strconv.Itoa(r.Seq),
		"event_type": string(r.Type),
		"timestamp":  r.Timestamp.UTC().Format(time.RFC3339Nano),
		"data":       string(r.Data),
	}
}
