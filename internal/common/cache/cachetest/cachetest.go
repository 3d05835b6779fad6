// Package cachetest wires a cache.RedisStore to an in-process miniredis
// for package tests.
package cachetest

import (
	"testing"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const Prefix = "askbot:"

// NewStore returns a store backed by a fresh miniredis that is closed
// when the test ends. The miniredis handle allows fast-forwarding TTLs.
func NewStore(t testing.TB) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return cache.NewRedisStore(database.NewRedisFromClient(rdb), Prefix), mr
}
