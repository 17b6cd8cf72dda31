package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Init connects a client and verifies the server is reachable. Redis is
// only used for schedule execution locks, so a failed connection is
// surfaced to the caller instead of killing the process.
func Init(address, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
