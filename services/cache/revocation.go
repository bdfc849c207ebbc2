// Package cache keeps hot lookups in redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

const keyPrefix = "zenith:revoked:"

// RevocationCache remembers blacklist lookups. Redis failures degrade to misses.
type RevocationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ user.RevocationCache = (*RevocationCache)(nil) // interface compliance check

// NewClient connects to redis with short timeouts.
func NewClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewRevocationCache keeps entries for ttl, the lifetime of the longest token.
func NewRevocationCache(client *redis.Client, ttl time.Duration, logger core.Logger) *RevocationCache {
	return &RevocationCache{client: client, ttl: ttl, logger: logger}
}

// Healthy verifies redis connectivity.
func (c *RevocationCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *RevocationCache) IsRevoked(ctx context.Context, token string) (revoked bool, found bool) {
	val, err := c.client.Get(ctx, key(token)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(fmt.Sprintf("revocation cache get: %v", err), err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RevocationCache) Remember(ctx context.Context, token string, revoked bool) {
	val := "0"
	if revoked {
		val = "1"
	}
	if err := c.client.Set(ctx, key(token), val, c.ttl).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("revocation cache set: %v", err), err)
	}
}
