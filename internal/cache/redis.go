package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces insightd entries inside a shared Redis database.
const keyPrefix = "insight:"

// RedisTier is the shared durable cache tier. Entries are stored as JSON
// with Redis-native expiry; Sweep is therefore a no-op here.
type RedisTier struct {
	client *redis.Client
}

// NewRedisTier connects to Redis and verifies the connection.
func NewRedisTier(ctx context.Context, addr, password string, db int) (*RedisTier, error) {
	initMetrics()
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisTier{client: client}, nil
}

// Name implements Tier.
func (t *RedisTier) Name() string { return "redis" }

// Get implements Tier.
func (t *RedisTier) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := t.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt value is unrecoverable; drop it and report a miss.
		_ = t.client.Del(ctx, keyPrefix+key).Err()
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Set implements Tier. The stored TTL is the entry's full lifetime rather
// than the wall-clock remainder: reads enforce ExpiresAt themselves, so the
// Redis expiry only garbage-collects, and the lifetime stays correct for
// entries produced under an offset clock.
func (t *RedisTier) Set(ctx context.Context, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	ttl := entryTTL(entry)
	if ttl <= 0 {
		return nil
	}
	if err := t.client.Set(ctx, keyPrefix+entry.Key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// entryTTL is the entry's intended lifetime, independent of the wall clock.
func entryTTL(e *Entry) time.Duration {
	return e.ExpiresAt.Sub(e.CreatedAt)
}

// Delete implements Tier.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteScope implements Tier. Subject scoping uses the clear-text subject
// segment of the key; category scoping requires reading each candidate.
func (t *RedisTier) DeleteScope(ctx context.Context, subjectID string, categories []string) (int, error) {
	pattern := keyPrefix + "*"
	if subjectID != "" {
		pattern = keyPrefix + sanitizeKeyPart(subjectID) + ":*"
	}

	removed := 0
	iter := t.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		if len(categories) > 0 {
			raw, err := t.client.Get(ctx, fullKey).Bytes()
			if err != nil {
				continue
			}
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err == nil && !matchScope(&entry, subjectID, categories) {
				continue
			}
		}
		if err := t.client.Del(ctx, fullKey).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}

// Clear implements Tier, removing only keys under our prefix.
func (t *RedisTier) Clear(ctx context.Context) (int, error) {
	removed := 0
	iter := t.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := t.client.Del(ctx, iter.Val()).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}

// Sweep implements Tier. Redis expires entries natively.
func (t *RedisTier) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Close implements Tier.
func (t *RedisTier) Close() error {
	return t.client.Close()
}
