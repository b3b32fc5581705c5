package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist stores revoked token ids until the token would have expired.
type Blacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist keeps revoked ids in process memory.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for id, exp := range b.entries {
		if !exp.After(now) {
			delete(b.entries, id)
		}
	}
	if expiresAt.After(now) {
		b.entries[jti] = expiresAt
	}
	return nil
}

func (b *MemoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[jti]
	return ok && exp.After(b.now()), nil
}

const blacklistPrefix = "blacklist:"

// RedisBlacklist shares revoked ids between instances.
type RedisBlacklist struct {
	client *redis.Client
}

// OpenRedisBlacklist connects and pings the server.
func OpenRedisBlacklist(ctx context.Context, addr string) (*RedisBlacklist, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBlacklist{client: client}, nil
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

func (b *RedisBlacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBlacklist) Close() error {
	return b.client.Close()
}
