// Package redisstore implements interfaces.Store against a Redis-compatible
// coordination store using github.com/go-redis/redis/v8.
package redisstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"agentrouter/interfaces"

	"github.com/go-redis/redis/v8"
)

// RedisConfig holds the pieces NewClient needs to build a redis.UniversalClient.
type RedisConfig struct {
	// Addr is the host:port the coordination store listens on.
	Addr string
	// Password is read from the URL's user-info (see NewClientFromURL).
	Password string
}

// NewClientFromURL parses a REDIS_URL of the form redis://:password@host:port
// into a RedisConfig. TLS is enabled unconditionally by NewClient with
// certificate verification skipped (spec §4.2, §9 flags this as a known
// weakening carried over from the original prototype).
func NewClientFromURL(rawURL string) (*RedisConfig, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("redis url missing host: %q", rawURL)
	}
	password, _ := parsed.User.Password()
	return &RedisConfig{Addr: parsed.Host, Password: password}, nil
}

// NewClient creates a redis.UniversalClient with TLS enabled and certificate
// verification skipped, per spec §4.2.
func NewClient(cfg RedisConfig) redis.UniversalClient {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // spec-mandated, see DESIGN.md
		},
	}
	return redis.NewClient(opts)
}

// store implements interfaces.Store over a redis.UniversalClient.
type store struct {
	client redis.UniversalClient
}

// New wraps client as an interfaces.Store.
func New(client redis.UniversalClient) interfaces.Store {
	return &store{client: client}
}

func (s *store) SetEX(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", interfaces.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, nil
}

func (s *store) RecordActive(ctx context.Context, clientKey, backendAddr string, ttl time.Duration, backendKey, member string, score float64) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, clientKey, backendAddr, ttl)
	pipe.ZAdd(ctx, backendKey, &redis.Z{Score: score, Member: member})
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis pipeline record active (client=%s backend=%s): %w", clientKey, backendKey, err)
	}
	for i, cmd := range cmds {
		if cmd.Err() != nil {
			return fmt.Errorf("redis pipeline record active step %d (client=%s backend=%s): %w", i, clientKey, backendKey, cmd.Err())
		}
	}
	return nil
}

func (s *store) ZRem(ctx context.Context, key string, member string) error {
	if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis ZREM %s %s: %w", key, member, err)
	}
	return nil
}

func (s *store) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	count, err := s.client.ZCount(ctx, key, formatScore(min), formatScore(max)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZCOUNT %s: %w", key, err)
	}
	return count, nil
}

func (s *store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	removed, err := s.client.ZRemRangeByScore(ctx, key, formatScore(min), formatScore(max)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZREMRANGEBYSCORE %s: %w", key, err)
	}
	return removed, nil
}

func (s *store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis PING: %w", err)
	}
	return nil
}

// formatScore renders a score the way ZCOUNT/ZREMRANGEBYSCORE expect: a
// plain base-10 integer string, matching the original prototype's use of
// strconv.FormatInt on UnixMilli/Unix values.
func formatScore(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}
