package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultGuestTTL is how long an idle guest ledger survives in Redis.
const DefaultGuestTTL = 30 * 24 * time.Hour

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps guest ledgers for HTTP clients, one key per guest id.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisStore returns a store using client. A zero ttl means
// DefaultGuestTTL.
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultGuestTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis parses url, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// GuestKey returns the Redis key holding a guest's ledger.
func GuestKey(guestID string) string {
	return fmt.Sprintf("coursiz:guest:%s:progress", guestID)
}

// Load reads the guest ledger. A missing key is an empty ledger.
func (s *RedisStore) Load(ctx context.Context, guestID string) (Ledger, error) {
	raw, err := s.client.Get(ctx, GuestKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Empty(), nil
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("get guest progress: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Ledger{}, fmt.Errorf("decode guest progress: %w", err)
	}
	return New(entries...), nil
}

// Upsert merges e into the guest ledger and refreshes the TTL. A failed
// read aborts the write so stored entries are never replaced.
func (s *RedisStore) Upsert(ctx context.Context, guestID string, e Entry) error {
	l, err := s.Load(ctx, guestID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(l.With(e).Entries())
	if err != nil {
		return fmt.Errorf("encode guest progress: %w", err)
	}
	if err := s.client.Set(ctx, GuestKey(guestID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set guest progress: %w", err)
	}
	return nil
}

// Reset deletes the guest ledger.
func (s *RedisStore) Reset(ctx context.Context, guestID string) error {
	if err := s.client.Del(ctx, GuestKey(guestID)).Err(); err != nil {
		return fmt.Errorf("delete guest progress: %w", err)
	}
	return nil
}
