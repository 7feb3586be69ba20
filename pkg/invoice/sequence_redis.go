package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKeyPrefix = "invoice:seq:"
	defaultRedisKeyTTL    = 48 * time.Hour
)

// RedisSequence keeps counters in Redis so that several processes share them.
// Each counter lives under {prefix}{yymmdd}:{subject} and expires after the TTL,
// which must outlive the calendar day it counts.
type RedisSequence struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisSequenceOption configures a RedisSequence.
type RedisSequenceOption func(*RedisSequence)

// WithKeyPrefix overrides the "invoice:seq:" key prefix.
func WithKeyPrefix(prefix string) RedisSequenceOption {
	return func(s *RedisSequence) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithKeyTTL overrides the 48h counter lifetime.
// Panics if ttl is shorter than a day.
func WithKeyTTL(ttl time.Duration) RedisSequenceOption {
	return func(s *RedisSequence) {
		if ttl < 24*time.Hour {
			panic("invoice: sequence TTL must cover at least one day")
		}
		s.ttl = ttl
	}
}

// NewRedisSequence creates a Sequence backed by INCR.
func NewRedisSequence(client redis.UniversalClient, opts ...RedisSequenceOption) *RedisSequence {
	if client == nil {
		panic("invoice: redis client is required")
	}
	s := &RedisSequence{
		client:    client,
		keyPrefix: defaultRedisKeyPrefix,
		ttl:       defaultRedisKeyTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSequence) Next(ctx context.Context, subjectID string, day time.Time) (int64, error) {
	key := s.keyPrefix + sequenceKey(subjectID, day)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrSequenceFailed, err)
	}

	return incr.Val(), nil
}
