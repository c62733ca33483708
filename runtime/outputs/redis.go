package outputs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// DefaultRedisPrefix is the key prefix when none is configured.
const DefaultRedisPrefix = "scribe"

// RedisSink stores records as JSON and indexes them per session kind.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires records after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisSink) { s.ttl = ttl }
}

// NewRedisSink creates a sink on client.
func NewRedisSink(client redis.UniversalClient, opts ...RedisOption) *RedisSink {
	s := &RedisSink{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores rec under <prefix>:record:<id> and appends the id to
// <prefix>:<kind> in one pipeline. It returns the record key.
func (s *RedisSink) Save(ctx context.Context, rec *Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	key := s.recordKey(rec.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.RPush(ctx, s.indexKey(rec.Kind), rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis save failed: %w", err)
	}
	return key, nil
}

// Load returns the record with id.
func (s *RedisSink) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// List returns the ids saved for kind, oldest first.
func (s *RedisSink) List(ctx context.Context, kind types.SessionKind) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.indexKey(kind), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list failed: %w", err)
	}
	return ids, nil
}

// Ping checks the connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSink) recordKey(id string) string {
	return s.prefix + ":record:" + id
}

func (s *RedisSink) indexKey(kind types.SessionKind) string {
	return s.prefix + ":" + kind.String()
}
