package adapter

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client shared by the redis stream publisher and
// subscriber.
func NewRedisClient(addr string) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}
