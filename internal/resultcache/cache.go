package resultcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/models"
)

const DefaultTTL = 30 * time.Minute

type entry struct {
	Query     string               `json:"query"`
	AccountID string               `json:"accountId"`
	Result    *models.SearchResult `json:"result"`
	CachedAt  time.Time            `json:"cachedAt"`
}

// Cache memoizes tracker search results per (query, account). Backend
// failures degrade to misses so a broken cache never blocks a search.
type Cache struct {
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func New(store cache.Store, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, logger: log}
}

// Key is jql:<md5 of the canonical JSON of query and account>.
func Key(query, accountID string) string {
	payload, _ := json.Marshal(struct {
		JQL     string `json:"jql"`
		Account string `json:"account"`
	}{query, accountID})
	sum := md5.Sum(payload)
	return "jql:" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, query, accountID string) (*models.SearchResult, bool) {
	var e entry
	err := cache.GetJSON(ctx, c.store, Key(query, accountID), &e)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("result", metrics.ResultMiss).Inc()
		return nil, false
	case err != nil:
		metrics.CacheRequests.WithLabelValues("result", metrics.ResultError).Inc()
		c.logger.Warn("Result cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	// Guard against a hash collision across accounts.
	if e.Query != query || e.AccountID != accountID || e.Result == nil {
		metrics.CacheRequests.WithLabelValues("result", metrics.ResultMiss).Inc()
		return nil, false
	}
	metrics.CacheRequests.WithLabelValues("result", metrics.ResultHit).Inc()
	return e.Result, true
}

func (c *Cache) Put(ctx context.Context, query, accountID string, result *models.SearchResult) {
	if result == nil {
		return
	}
	e := entry{Query: query, AccountID: accountID, Result: result, CachedAt: time.Now().UTC()}
	if err := cache.SetJSON(ctx, c.store, Key(query, accountID), e, c.ttl); err != nil {
		c.logger.Warn("Result cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
