package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// InitRedis connects the shared client. Listing caches are an optimization:
// when no address is configured the client stays nil and every helper
// becomes a no-op or miss.
func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	if redisAddress == "" {
		return
	}
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// SetJSON marshals value and caches it under key with a TTL.
func SetJSON(ctx context.Context, key string, value any, expiration time.Duration) {
	if Rdb == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal cache value")
		return
	}
	if err := Rdb.Set(ctx, key, payload, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write cache key")
	}
}

// GetJSON unmarshals the cached value into out, reporting a hit.
func GetJSON(ctx context.Context, key string, out any) bool {
	if Rdb == nil {
		return false
	}
	payload, err := Rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal cache value")
		return false
	}
	return true
}

// Invalidate drops keys after a write that makes them stale.
func Invalidate(ctx context.Context, keys ...string) {
	if Rdb == nil || len(keys) == 0 {
		return
	}
	if err := Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("failed to invalidate cache keys")
	}
}
