package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIVStore persists per-key daily IV ranges as a rolling window in Redis.
// Each day writes one member; the 90-day range is the min/max over the window.
type RedisIVStore struct {
	client  *redis.Client
	prefix  string
	horizon int // days kept
}

// NewRedisIVStore creates the store and verifies connectivity.
func NewRedisIVStore(addr, password string, db, horizonDays int) (*RedisIVStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if horizonDays <= 0 {
		horizonDays = 90
	}
	return &RedisIVStore{client: client, prefix: "tapelens:iv", horizon: horizonDays}, nil
}

func (s *RedisIVStore) key(key string) string {
	return s.prefix + ":" + key
}

// RecordDailyIV upserts today's high/low for the key. The hash field is the
// day stamp, so repeated intraday calls overwrite the same member.
func (s *RedisIVStore) RecordDailyIV(ctx context.Context, key string, dayHigh, dayLow float64) error {
	day := time.Now().UTC().Format("2006-01-02")
	val := strconv.FormatFloat(dayHigh, 'f', -1, 64) + "|" + strconv.FormatFloat(dayLow, 'f', -1, 64)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(key), day, val)
	pipe.Expire(ctx, s.key(key), time.Duration(s.horizon+7)*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record daily iv: %w", err)
	}
	return nil
}

// Get90DayRange returns the extreme high/low across the stored window.
// An empty window yields (0, 0) with no error; the caller treats that as a
// degenerate range.
func (s *RedisIVStore) Get90DayRange(ctx context.Context, key string) (float64, float64, error) {
	entries, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("get iv range: %w", err)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.horizon).Format("2006-01-02")
	var high, low float64
	seen := false
	for day, val := range entries {
		if day < cutoff {
			continue
		}
		var h, l float64
		if _, err := fmt.Sscanf(val, "%g|%g", &h, &l); err != nil {
			continue
		}
		if !seen || h > high {
			high = h
		}
		if !seen || l < low {
			low = l
		}
		seen = true
	}
	return high, low, nil
}

// Close releases the client.
func (s *RedisIVStore) Close() error { return s.client.Close() }
