package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// GetJSON returns the cached value at key, or ok=false on miss or error.
// Cache errors are never fatal; the caller falls back to the database.
func GetJSON(ctx context.Context, rdb *redis.Client, key string) (data []byte, ok bool) {
	s, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return s, true
}
