package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, Options{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestRedisCache_ErrorIsNotMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	c := NewRedisCache(rdb, "")
	defer c.Close()

	_, err := c.Get(context.Background(), "stats")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Equal(t, "midas:stats", c.key("stats"))
}
