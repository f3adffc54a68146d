// The redisutils package simplifies and automates recurring operations like
// connecting to, formatting for, and parsing from Redis.
package redisutils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	ProdAddr string = "localhost:6379"
	TestAddr string = "localhost:6380"
)

// SetupClient() initializes a new Redis client connected to addr.
// An empty addr defaults to ProdAddr.
func SetupClient(addr string) *redis.Client {
	if addr == "" {
		addr = ProdAddr
	}

	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// SetupTestClient() initializes a new Redis client for tests.
func SetupTestClient() *redis.Client {
	return SetupClient(TestAddr)
}

// Ping() returns the error of a PING command, nil if the server is reachable.
func Ping(ctx context.Context, cl *redis.Client) error {
	return cl.Ping(ctx).Err()
}

// CleanupRedis() cleans up the Redis database between tests to ensure isolation.
func CleanupRedis(client *redis.Client) {
	client.FlushAll(context.Background())
}
