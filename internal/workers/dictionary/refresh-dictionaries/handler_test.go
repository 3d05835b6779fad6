// internal/workers/dictionary/refresh-dictionaries/handler_test.go
package refreshdictionaries

import (
	"context"
	"errors"
	"testing"
	"time"

	"jira-askbot/internal/common/auth"
	"jira-askbot/internal/common/cache/cachetest"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/dictionary"
	"jira-askbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	failStatuses bool
}

func (f stubFetcher) ListProjects(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "CRM", Name: "CRM"}, {ID: "IDB", Name: "Иль де Ботэ"}}, nil
}

func (f stubFetcher) ListStatuses(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	if f.failStatuses {
		return nil, errors.New("HTTP 503")
	}
	return []models.DictionaryRecord{{ID: "1", Name: "Открыт", Category: "new"}}, nil
}

func (f stubFetcher) ListIssueTypes(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "1", Name: "Bug"}}, nil
}

func (f stubFetcher) ListPriorities(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "2", Name: "High"}}, nil
}

func (f stubFetcher) ListUsers(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return nil, nil
}

func setup(t *testing.T, fetcher dictionary.Fetcher) (*Handler, *dictionary.Cache, *auth.CredentialStore) {
	store, _ := cachetest.NewStore(t)
	log := logger.NewTestLogger(t)

	creds, err := auth.NewCredentialStore(store, "test-secret", time.Hour)
	require.NoError(t, err)
	dicts := dictionary.NewCache(store, fetcher, creds, time.Hour, log)

	return NewHandler(LoadConfig(), dicts, creds, log), dicts, creds
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name       string
		fetcher    stubFetcher
		wantFailed []models.DictionaryType
		wantCounts map[models.DictionaryType]int
	}{
		{
			name:    "all fetched",
			fetcher: stubFetcher{},
			wantCounts: map[models.DictionaryType]int{
				models.DictProjects: 2, models.DictStatuses: 1, models.DictIssueTypes: 1,
				models.DictPriorities: 1, models.DictUsers: 0,
			},
		},
		{
			name:       "partial failure is stored empty",
			fetcher:    stubFetcher{failStatuses: true},
			wantFailed: []models.DictionaryType{models.DictStatuses},
			wantCounts: map[models.DictionaryType]int{
				models.DictProjects: 2, models.DictStatuses: 0, models.DictIssueTypes: 1,
				models.DictPriorities: 1, models.DictUsers: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dicts, creds := setup(t, tt.fetcher)
			ctx := context.Background()
			require.NoError(t, creds.Save(ctx, "u1", models.Credentials{Username: "ivanov", Secret: "token"}))

			out, err := h.Execute(ctx, &Input{AccountID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, "u1", out.AccountID)
			assert.Equal(t, tt.wantCounts, out.Counts)
			assert.Equal(t, tt.wantFailed, out.Failed)

			projects, err := dicts.Get(ctx, models.DictProjects, "u1")
			require.NoError(t, err)
			assert.Len(t, projects, 2)
		})
	}
}

func TestHandler_Execute_NoCredentials(t *testing.T) {
	h, _, _ := setup(t, stubFetcher{})

	_, err := h.Execute(context.Background(), &Input{AccountID: "nobody"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTrackerAuth))
}

func TestHandler_Execute_MissingAccount(t *testing.T) {
	h, _, _ := setup(t, stubFetcher{})

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
