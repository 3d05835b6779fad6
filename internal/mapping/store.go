package mapping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/models"
)

const (
	clientPrefix = "mapping:client:"
	userPrefix   = "mapping:user:"

	DefaultTTL = 30 * 24 * time.Hour
)

var ErrEmptyName = errors.New("INVALID_INPUT: empty mapping name or value")

// Store keeps the client->project and person->login associations users
// teach the bot. Keys are case-folded and the last write wins.
type Store struct {
	cache  cache.Store
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewStore(c cache.Store, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl, logger: log, now: time.Now}
}

// Fold normalizes a name into its lookup form.
func Fold(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (s *Store) TeachClient(ctx context.Context, name, projectKey, teacherID string) (*models.ClientMapping, error) {
	name, projectKey = strings.TrimSpace(name), strings.ToUpper(strings.TrimSpace(projectKey))
	if Fold(name) == "" || projectKey == "" {
		return nil, ErrEmptyName
	}
	m := &models.ClientMapping{
		ClientName: name,
		ProjectKey: projectKey,
		LearnedBy:  teacherID,
		LearnedAt:  s.now().UTC(),
	}
	if err := cache.SetJSON(ctx, s.cache, clientPrefix+Fold(name), m, s.ttl); err != nil {
		return nil, fmt.Errorf("teach client %q: %w", name, err)
	}
	s.logger.Info("Client mapping learned", map[string]interface{}{
		"client":     name,
		"projectKey": projectKey,
		"learnedBy":  teacherID,
	})
	return m, nil
}

// ResolveClient returns the project key taught for name. A hit refreshes
// the mapping's TTL.
func (s *Store) ResolveClient(ctx context.Context, name string) (string, bool, error) {
	var m models.ClientMapping
	found, err := s.lookup(ctx, "client", clientPrefix+Fold(name), &m)
	if err != nil || !found {
		return "", false, err
	}
	return m.ProjectKey, true, nil
}

func (s *Store) TeachUser(ctx context.Context, displayName, username, teacherID string) (*models.UserMapping, error) {
	displayName, username = strings.TrimSpace(displayName), strings.TrimSpace(username)
	if Fold(displayName) == "" || username == "" {
		return nil, ErrEmptyName
	}
	m := &models.UserMapping{
		DisplayName: displayName,
		Username:    username,
		LearnedBy:   teacherID,
		LearnedAt:   s.now().UTC(),
	}
	if err := cache.SetJSON(ctx, s.cache, userPrefix+Fold(displayName), m, s.ttl); err != nil {
		return nil, fmt.Errorf("teach user %q: %w", displayName, err)
	}
	s.logger.Info("User mapping learned", map[string]interface{}{
		"displayName": displayName,
		"username":    username,
		"learnedBy":   teacherID,
	})
	return m, nil
}

func (s *Store) ResolveUser(ctx context.Context, displayName string) (string, bool, error) {
	var m models.UserMapping
	found, err := s.lookup(ctx, "user", userPrefix+Fold(displayName), &m)
	if err != nil || !found {
		return "", false, err
	}
	return m.Username, true, nil
}

func (s *Store) lookup(ctx context.Context, kind, key string, dst interface{}) (bool, error) {
	if key == clientPrefix || key == userPrefix {
		return false, nil
	}
	err := cache.GetJSON(ctx, s.cache, key, dst)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("mapping_"+kind, metrics.ResultMiss).Inc()
		return false, nil
	case err != nil:
		metrics.CacheRequests.WithLabelValues("mapping_"+kind, metrics.ResultError).Inc()
		return false, fmt.Errorf("resolve %s mapping: %w", kind, err)
	}
	metrics.CacheRequests.WithLabelValues("mapping_"+kind, metrics.ResultHit).Inc()

	if err := s.cache.Expire(ctx, key, s.ttl); err != nil {
		s.logger.Warn("Failed to refresh mapping TTL", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return true, nil
}

// ListAll returns every live mapping, sorted by name.
func (s *Store) ListAll(ctx context.Context) (*models.Mappings, error) {
	out := &models.Mappings{}

	clientKeys, err := s.cache.ScanPrefix(ctx, clientPrefix)
	if err != nil {
		return nil, fmt.Errorf("list client mappings: %w", err)
	}
	for _, key := range clientKeys {
		var m models.ClientMapping
		if err := cache.GetJSON(ctx, s.cache, key, &m); err != nil {
			// Expired between SCAN and GET, or unreadable.
			continue
		}
		out.Clients = append(out.Clients, m)
	}

	userKeys, err := s.cache.ScanPrefix(ctx, userPrefix)
	if err != nil {
		return nil, fmt.Errorf("list user mappings: %w", err)
	}
	for _, key := range userKeys {
		var m models.UserMapping
		if err := cache.GetJSON(ctx, s.cache, key, &m); err != nil {
			continue
		}
		out.Users = append(out.Users, m)
	}

	sort.Slice(out.Clients, func(i, j int) bool { return Fold(out.Clients[i].ClientName) < Fold(out.Clients[j].ClientName) })
	sort.Slice(out.Users, func(i, j int) bool { return Fold(out.Users[i].DisplayName) < Fold(out.Users[j].DisplayName) })
	return out, nil
}
