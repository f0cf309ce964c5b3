package cache

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Connect opens a redis client and fails fast when the server is
// unreachable, same as the database connection at boot.
func Connect(addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Redis connected (payment-service)")
	return rdb
}
