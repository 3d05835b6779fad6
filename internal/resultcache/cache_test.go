package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/cache/cachetest"
	"jira-askbot/internal/common/database"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := Key(`project = "ACM"`, "acc-1")
	assert.Regexp(t, `^jql:[0-9a-f]{32}$`, k)
	assert.Equal(t, k, Key(`project = "ACM"`, "acc-1"))
	assert.NotEqual(t, k, Key(`project = "ACM"`, "acc-2"))
	assert.NotEqual(t, k, Key(`project = "ACN"`, "acc-1"))
}

func TestCache_PutGet(t *testing.T) {
	store, mr := cachetest.NewStore(t)
	c := New(store, 30*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok := c.Get(ctx, "created >= -7d", "acc")
	assert.False(t, ok)

	result := &models.SearchResult{Total: 1, Issues: []models.Issue{{Key: "ACM-1", Summary: "s"}}}
	c.Put(ctx, "created >= -7d", "acc", result)

	got, ok := c.Get(ctx, "created >= -7d", "acc")
	require.True(t, ok)
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, "ACM-1", got.Issues[0].Key)

	_, ok = c.Get(ctx, "created >= -7d", "other")
	assert.False(t, ok, "results are scoped to the account")

	mr.FastForward(31 * time.Minute)
	_, ok = c.Get(ctx, "created >= -7d", "acc")
	assert.False(t, ok)
}

func TestCache_BackendFailureIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(cache.NewRedisStore(database.NewRedisFromClient(db), "askbot:"), time.Minute, logger.NewTestLogger(t))

	key := "askbot:" + Key("q", "acc")
	mock.ExpectGet(key).SetErr(errors.New("i/o timeout"))

	_, ok := c.Get(context.Background(), "q", "acc")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
