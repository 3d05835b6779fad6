// internal/bot/processor_test.go
package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"jira-askbot/internal/common/auth"
	"jira-askbot/internal/common/cache/cachetest"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/llm"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/conversation"
	"jira-askbot/internal/dictionary"
	"jira-askbot/internal/mapping"
	"jira-askbot/internal/models"
	"jira-askbot/internal/resultcache"
	classifyintent "jira-askbot/internal/workers/nlq/classify-intent"
	enrichcontext "jira-askbot/internal/workers/nlq/enrich-context"
	extractentities "jira-askbot/internal/workers/nlq/extract-entities"
	synthesizequery "jira-askbot/internal/workers/nlq/synthesize-query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	mu        sync.Mutex
	result    *models.SearchResult
	searchErr error
	myselfErr error
	onSearch  func()
	queries   []string
}

func (f *fakeTracker) Search(ctx context.Context, jql string, creds models.Credentials, maxResults int) (*models.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, jql)
	f.mu.Unlock()
	if f.onSearch != nil {
		f.onSearch()
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.result, nil
}

func (f *fakeTracker) Myself(ctx context.Context, creds models.Credentials) (string, error) {
	if f.myselfErr != nil {
		return "", f.myselfErr
	}
	return "Alice Smith", nil
}

func (f *fakeTracker) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type stubFetcher struct{}

func (stubFetcher) ListProjects(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "ACME", Name: "Acme Corp"}, {ID: "IDB", Name: "Иль де Ботэ"}}, nil
}

func (stubFetcher) ListStatuses(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{
		{ID: "1", Name: "Открыт", Category: "new"},
		{ID: "2", Name: "В работе", Category: "indeterminate"},
		{ID: "3", Name: "Закрыт", Category: "done"},
	}, nil
}

func (stubFetcher) ListIssueTypes(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "1", Name: "Bug"}}, nil
}

func (stubFetcher) ListPriorities(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "1", Name: "High"}}, nil
}

func (stubFetcher) ListUsers(context.Context, models.Credentials) ([]models.DictionaryRecord, error) {
	return []models.DictionaryRecord{{ID: "apetrova", Name: "Петрова"}}, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []models.QueryHistory
}

func (f *fakeHistory) Record(ctx context.Context, h *models.QueryHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueryHistory
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeHistory) recorded() []models.QueryHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.QueryHistory(nil), f.entries...)
}

type harness struct {
	processor     *Processor
	tracker       *fakeTracker
	credentials   *auth.CredentialStore
	mappings      *mapping.Store
	conversations *conversation.RedisStore
	history       *fakeHistory
}

const (
	testUser    = "u1"
	testChannel = "dm-u1"
)

func sampleResult() *models.SearchResult {
	return &models.SearchResult{
		Total: 2,
		Issues: []models.Issue{
			{Key: "ACME-1", Summary: "Логин не работает", Status: "Открыт", Assignee: "Иванов"},
			{Key: "ACME-2", Summary: "Отчет пустой", Status: "Открыт"},
		},
	}
}

func setup(t *testing.T) *harness {
	store, _ := cachetest.NewStore(t)
	log := logger.NewTestLogger(t)

	creds, err := auth.NewCredentialStore(store, "test-secret", time.Hour)
	require.NoError(t, err)
	mappings := mapping.NewStore(store, time.Hour, log)
	dicts := dictionary.NewCache(store, stubFetcher{}, creds, time.Hour, log)
	conversations := conversation.NewRedisStore(store, time.Hour)

	completer := llm.Disabled{}
	stages := Stages{
		Enricher:    enrichcontext.NewHandler(enrichcontext.LoadConfig(), conversations, log),
		Classifier:  classifyintent.NewHandler(classifyintent.LoadConfig(), completer, log),
		Extractor:   extractentities.NewHandler(extractentities.LoadConfig(), completer, log),
		Synthesizer: synthesizequery.NewHandler(synthesizequery.LoadConfig(), mappings, dicts, completer, log),
	}

	h := &harness{
		tracker:       &fakeTracker{result: sampleResult()},
		credentials:   creds,
		mappings:      mappings,
		conversations: conversations,
		history:       &fakeHistory{},
	}
	h.processor = NewProcessor(&Config{MaxResults: 50, ReplyLimit: 10}, Deps{
		Stages:        stages,
		Tracker:       h.tracker,
		Credentials:   creds,
		Mappings:      mappings,
		Dictionaries:  dicts,
		Results:       resultcache.New(store, time.Hour, log),
		Conversations: conversations,
		History:       h.history,
		Stats:         store,
	}, log)
	return h
}

func (h *harness) authorize(t *testing.T) {
	t.Helper()
	require.NoError(t, h.credentials.Save(context.Background(), testUser, models.Credentials{Username: "alice", Secret: "token"}))
}

func (h *harness) send(t *testing.T, ctx context.Context, text string) *Reply {
	t.Helper()
	reply, err := h.processor.Process(ctx, Message{UserID: testUser, ChannelID: testChannel, Text: text})
	require.NoError(t, err)
	require.NotNil(t, reply)
	return reply
}

func TestProcess_InvalidInput(t *testing.T) {
	h := setup(t)

	_, err := h.processor.Process(context.Background(), Message{UserID: testUser, Text: "   "})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = h.processor.Process(context.Background(), Message{Text: "помощь"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestProcess_RequiresCredentials(t *testing.T) {
	h := setup(t)

	reply := h.send(t, context.Background(), "задачи без исполнителя")
	assert.Equal(t, authRequiredText, reply.Text)
	assert.Empty(t, h.tracker.searched())
}

func TestProcess_RulePipeline(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	ctx := context.Background()

	reply := h.send(t, ctx, "задачи без исполнителя")

	require.Equal(t, []string{"assignee is EMPTY"}, h.tracker.searched())
	assert.Contains(t, reply.Text, "**Найдено задач:** 2")
	assert.Contains(t, reply.Text, "**ACME-1** - Логин не работает")
	assert.Nil(t, reply.Chart)

	turn, err := h.conversations.Load(ctx, testUser, testChannel)
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, "задачи без исполнителя", turn.LastQuery)
	assert.Equal(t, models.AssigneeUnassigned, models.Deref(turn.LastEntities.AssigneeRaw))

	recorded := h.history.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "assignee is EMPTY", recorded[0].Query)
	assert.Equal(t, 2, recorded[0].ResultCount)
	assert.False(t, recorded[0].Cached)
}

func TestProcess_ResultCacheHit(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	ctx := context.Background()

	first := h.send(t, ctx, "задачи без исполнителя")
	second := h.send(t, ctx, "задачи без исполнителя")

	assert.Len(t, h.tracker.searched(), 1)
	assert.Equal(t, first.Text, second.Text)

	recorded := h.history.recorded()
	require.Len(t, recorded, 2)
	assert.True(t, recorded[1].Cached)
}

func TestProcess_ClientMappingFlow(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	ctx := context.Background()

	reply := h.send(t, ctx, "задачи клиента Acme")
	assert.Contains(t, reply.Text, `клиенту "Acme"`)
	assert.Contains(t, reply.Text, `научи клиент "Acme" проект`)
	assert.Empty(t, h.tracker.searched())

	turn, err := h.conversations.Load(ctx, testUser, testChannel)
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, "Acme", models.Deref(turn.LastEntities.ClientName))

	reply = h.send(t, ctx, `научи клиент "Acme" проект "acme"`)
	assert.Contains(t, reply.Text, `клиент **"Acme"** соответствует проекту **"ACME"**`)

	h.send(t, ctx, "задачи клиента Acme")
	assert.Equal(t, []string{`project = "ACME"`}, h.tracker.searched())
}

func TestProcess_FollowUpLearnsUserFromDictionary(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	ctx := context.Background()

	h.send(t, ctx, "задачи без исполнителя")
	h.send(t, ctx, "а у Петрова?")

	queries := h.tracker.searched()
	require.Len(t, queries, 2)
	assert.Equal(t, `assignee = "apetrova"`, queries[1])

	username, ok, err := h.mappings.ResolveUser(ctx, "Петрова")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "apetrova", username)

	turn, err := h.conversations.Load(ctx, testUser, testChannel)
	require.NoError(t, err)
	assert.Equal(t, "задачи без исполнителя а у Петрова?", turn.LastQuery)
}

func TestProcess_FollowUpStatusFlip(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	ctx := context.Background()

	h.send(t, ctx, "задачи без исполнителя")
	h.send(t, ctx, "а закрытые?")

	queries := h.tracker.searched()
	require.Len(t, queries, 2)
	assert.Equal(t, `assignee is EMPTY AND status in ("Закрыт")`, queries[1])
}

func TestProcess_TrackerErrors(t *testing.T) {
	t.Run("auth error drops credentials", func(t *testing.T) {
		h := setup(t)
		h.authorize(t)
		h.tracker.searchErr = apperrors.NewTrackerAuthError("HTTP 401")

		reply := h.send(t, context.Background(), "задачи без исполнителя")
		assert.Contains(t, reply.Text, "Необходимо повторить авторизацию")

		_, err := h.credentials.Get(context.Background(), testUser)
		assert.ErrorIs(t, err, auth.ErrNoCredentials)
	})

	t.Run("api error is surfaced", func(t *testing.T) {
		h := setup(t)
		h.authorize(t)
		h.tracker.searchErr = apperrors.NewTrackerAPIError(400, "Field 'foo' does not exist")

		reply := h.send(t, context.Background(), "задачи без исполнителя")
		assert.Contains(t, reply.Text, "Ошибка Jira API: Field 'foo' does not exist")
		assert.Empty(t, h.history.recorded())
	})
}

func TestProcess_NoResults(t *testing.T) {
	h := setup(t)
	h.authorize(t)
	h.tracker.result = &models.SearchResult{}

	reply := h.send(t, context.Background(), "задачи без исполнителя")
	assert.Equal(t, "📋 По вашему запросу задачи не найдены.", reply.Text)
}

func TestProcess_CancelledRequestSkipsWrites(t *testing.T) {
	h := setup(t)
	h.authorize(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.tracker.onSearch = cancel

	reply := h.send(t, ctx, "задачи без исполнителя")
	assert.Contains(t, reply.Text, "**Найдено задач:** 2")

	turn, err := h.conversations.Load(context.Background(), testUser, testChannel)
	require.NoError(t, err)
	assert.Nil(t, turn)
	assert.Empty(t, h.history.recorded())

	h.tracker.onSearch = nil
	h.send(t, context.Background(), "задачи без исполнителя")
	assert.Len(t, h.tracker.searched(), 2, "result must not have been cached")
}

func TestProcess_Chart(t *testing.T) {
	h := setup(t)
	h.authorize(t)

	reply := h.send(t, context.Background(), "задачи без исполнителя по статусам покажи круговой график")
	require.NotNil(t, reply.Chart)
	assert.Equal(t, &ChartSpec{Type: chartPie, GroupBy: "status", Labels: []string{"Открыт"}, Values: []int{2}}, reply.Chart)
}
