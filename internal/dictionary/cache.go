package dictionary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/models"

	"golang.org/x/sync/errgroup"
)

const DefaultTTL = 24 * time.Hour

// Fetcher lists the tracker's controlled vocabularies.
type Fetcher interface {
	ListProjects(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error)
	ListStatuses(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error)
	ListIssueTypes(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error)
	ListPriorities(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error)
	ListUsers(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error)
}

// CredentialSource supplies tracker credentials for an account so that
// EnsureFresh can refresh without the caller passing them in.
type CredentialSource interface {
	Credentials(ctx context.Context, accountID string) (*models.Credentials, error)
}

// RefreshReport says which dictionaries failed during a refresh.
type RefreshReport struct {
	AccountID string                        `json:"accountId"`
	Counts    map[models.DictionaryType]int `json:"counts"`
	Failed    []models.DictionaryType       `json:"failed,omitempty"`
}

// Cache stores per-account snapshots under jira_dict:<type>:<account>.
type Cache struct {
	store   cache.Store
	fetcher Fetcher
	creds   CredentialSource
	ttl     time.Duration
	logger  logger.Logger
}

func NewCache(store cache.Store, fetcher Fetcher, creds CredentialSource, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, fetcher: fetcher, creds: creds, ttl: ttl, logger: log}
}

func key(t models.DictionaryType, accountID string) string {
	return fmt.Sprintf("jira_dict:%s:%s", t, accountID)
}

func (c *Cache) fetch(ctx context.Context, t models.DictionaryType, creds models.Credentials) ([]models.DictionaryRecord, error) {
	switch t {
	case models.DictProjects:
		return c.fetcher.ListProjects(ctx, creds)
	case models.DictStatuses:
		return c.fetcher.ListStatuses(ctx, creds)
	case models.DictIssueTypes:
		return c.fetcher.ListIssueTypes(ctx, creds)
	case models.DictPriorities:
		return c.fetcher.ListPriorities(ctx, creds)
	case models.DictUsers:
		return c.fetcher.ListUsers(ctx, creds)
	}
	return nil, fmt.Errorf("unknown dictionary type %q", t)
}

// Refresh fetches all five dictionaries concurrently. A dictionary that
// fails to fetch is stored as empty; the refresh itself only fails when
// the results cannot be written.
func (c *Cache) Refresh(ctx context.Context, accountID string, creds models.Credentials) (*RefreshReport, error) {
	results := make([][]models.DictionaryRecord, len(models.AllDictionaryTypes))
	fetchErrs := make([]error, len(models.AllDictionaryTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range models.AllDictionaryTypes {
		g.Go(func() error {
			records, err := c.fetch(gctx, t, creds)
			if err != nil {
				fetchErrs[i] = err
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	report := &RefreshReport{AccountID: accountID, Counts: make(map[models.DictionaryType]int)}
	for i, t := range models.AllDictionaryTypes {
		records := results[i]
		if fetchErrs[i] != nil {
			report.Failed = append(report.Failed, t)
			metrics.DictionaryRefreshes.WithLabelValues(string(t), "failed").Inc()
			c.logger.Warn("Dictionary fetch failed, storing empty snapshot", map[string]interface{}{
				"dictionary": string(t),
				"accountId":  accountID,
				"error":      fetchErrs[i].Error(),
			})
			records = []models.DictionaryRecord{}
		} else {
			metrics.DictionaryRefreshes.WithLabelValues(string(t), "ok").Inc()
		}
		if records == nil {
			records = []models.DictionaryRecord{}
		}
		if err := cache.SetJSON(ctx, c.store, key(t, accountID), records, c.ttl); err != nil {
			return report, fmt.Errorf("store %s dictionary: %w", t, err)
		}
		report.Counts[t] = len(records)
	}

	c.logger.Info("Dictionaries refreshed", map[string]interface{}{
		"accountId": accountID,
		"counts":    report.Counts,
		"failed":    len(report.Failed),
	})
	return report, nil
}

// Get returns one snapshot. A missing snapshot is an empty list.
func (c *Cache) Get(ctx context.Context, t models.DictionaryType, accountID string) ([]models.DictionaryRecord, error) {
	var records []models.DictionaryRecord
	err := cache.GetJSON(ctx, c.store, key(t, accountID), &records)
	if errors.Is(err, cache.ErrCacheMiss) {
		metrics.CacheRequests.WithLabelValues("dictionary", metrics.ResultMiss).Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues("dictionary", metrics.ResultError).Inc()
		return nil, err
	}
	metrics.CacheRequests.WithLabelValues("dictionary", metrics.ResultHit).Inc()
	return records, nil
}

func (c *Cache) GetAll(ctx context.Context, accountID string) (models.Dictionaries, error) {
	out := make(models.Dictionaries, len(models.AllDictionaryTypes))
	for _, t := range models.AllDictionaryTypes {
		records, err := c.Get(ctx, t, accountID)
		if err != nil {
			return nil, fmt.Errorf("get %s dictionary: %w", t, err)
		}
		out[t] = records
	}
	return out, nil
}

func (c *Cache) Invalidate(ctx context.Context, accountID string) error {
	keys := make([]string, 0, len(models.AllDictionaryTypes))
	for _, t := range models.AllDictionaryTypes {
		keys = append(keys, key(t, accountID))
	}
	return c.store.Delete(ctx, keys...)
}

// EnsureFresh returns the account's dictionaries, refreshing them first
// when every snapshot is empty.
func (c *Cache) EnsureFresh(ctx context.Context, accountID string) (models.Dictionaries, error) {
	dicts, err := c.GetAll(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !dicts.Empty() {
		return dicts, nil
	}
	if c.creds == nil || c.fetcher == nil {
		return dicts, nil
	}

	creds, err := c.creds.Credentials(ctx, accountID)
	if err != nil {
		return dicts, fmt.Errorf("credentials for dictionary refresh: %w", err)
	}
	if creds == nil {
		return dicts, nil
	}

	c.logger.Info("All dictionaries empty, refreshing", map[string]interface{}{"accountId": accountID})
	if _, err := c.Refresh(ctx, accountID, *creds); err != nil {
		return dicts, err
	}
	return c.GetAll(ctx, accountID)
}
