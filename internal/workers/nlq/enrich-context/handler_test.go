// internal/workers/nlq/enrich-context/handler_test.go
package enrichcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"jira-askbot/internal/common/cache/cachetest"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/conversation"
	"jira-askbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Load(context.Context, string, string) (*models.ConversationTurn, error) {
	return nil, errors.New("redis down")
}

func (failingStore) Save(context.Context, *models.ConversationTurn) error {
	return errors.New("redis down")
}

func setupStore(t *testing.T, prior *models.ConversationTurn) conversation.Store {
	c, _ := cachetest.NewStore(t)
	store := conversation.NewRedisStore(c, time.Hour)
	if prior != nil {
		require.NoError(t, store.Save(context.Background(), prior))
	}
	return store
}

func priorTurn() *models.ConversationTurn {
	return &models.ConversationTurn{
		UserID:     "u1",
		ChannelID:  "c1",
		LastQuery:  "задачи клиента Рулев за этот месяц",
		LastIntent: models.IntentSearch,
		LastEntities: models.EntityBag{
			ClientName:   models.StringPtr("Рулев"),
			TimePeriod:   models.StringPtr(models.PeriodThisMonth),
			QueryType:    models.QueryTypeSearch,
			StatusIntent: models.StatusAll,
		},
		UpdatedAt: time.Now(),
	}
}

func createTestHandler(t *testing.T, store conversation.Store) *Handler {
	return NewHandler(LoadConfig(), store, logger.NewTestLogger(t))
}

func TestHandler_Execute_Inert(t *testing.T) {
	tests := []struct {
		name  string
		store conversation.Store
		text  string
	}{
		{"no follow-up indicator", setupStore(t, priorTurn()), "сколько багов закрыли в июле"},
		{"indicator inside a word", setupStore(t, priorTurn()), "покажи задачи по адресу"},
		{"no prior turn", setupStore(t, nil), "а закрытые?"},
		{"other channel", setupStore(t, &models.ConversationTurn{UserID: "u1", ChannelID: "c2", LastQuery: "x"}), "а закрытые?"},
		{"store down", failingStore{}, "а закрытые?"},
		{"blank text", setupStore(t, priorTurn()), "   "},
		{"empty text", setupStore(t, priorTurn()), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.store)

			out, err := h.Execute(context.Background(), &Input{UserID: "u1", ChannelID: "c1", Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, &Output{Text: tt.text}, out)
			assert.True(t, out.Extra.IsEmpty())
		})
	}
}

func TestHandler_Execute_FollowUp(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantRewrites []string
		check        func(t *testing.T, extra models.EntityBag)
	}{
		{
			name:         "client is actually an employee",
			text:         "Рулев это сотрудник",
			wantRewrites: []string{"employee"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Nil(t, extra.ClientName)
				assert.Equal(t, "Рулев", models.Deref(extra.AssigneeRaw))
				assert.Equal(t, models.PeriodThisMonth, models.Deref(extra.TimePeriod))
			},
		},
		{
			name:         "closed flip",
			text:         "а закрытые?",
			wantRewrites: []string{"status-flip"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, models.StatusClosed, extra.StatusIntent)
				assert.Equal(t, "Рулев", models.Deref(extra.ClientName))
			},
		},
		{
			name:         "and for a person",
			text:         "а у Петрова",
			wantRewrites: []string{"and-for-name"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, "Петрова", models.Deref(extra.AssigneeRaw))
				assert.Equal(t, "Рулев", models.Deref(extra.ClientName))
			},
		},
		{
			name:         "and for another client",
			text:         "а для клиента Ромашка",
			wantRewrites: []string{"and-for-name"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, "Ромашка", models.Deref(extra.ClientName))
				assert.Nil(t, extra.AssigneeRaw)
			},
		},
		{
			name:         "and for me",
			text:         "а у меня?",
			wantRewrites: []string{"and-for-name"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, models.AssigneeCurrentUser, models.Deref(extra.AssigneeRaw))
			},
		},
		{
			name:         "english open ones",
			text:         "what about open ones",
			wantRewrites: []string{"status-flip"},
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, models.StatusOpen, extra.StatusIntent)
				assert.Nil(t, extra.AssigneeRaw)
			},
		},
		{
			name: "indicator without rewrite keeps prior entities",
			text: "также баги",
			check: func(t *testing.T, extra models.EntityBag) {
				assert.Equal(t, priorTurn().LastEntities, extra)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, setupStore(t, priorTurn()))

			out, err := h.Execute(context.Background(), &Input{UserID: "u1", ChannelID: "c1", Text: tt.text})
			require.NoError(t, err)
			assert.True(t, out.Active)
			assert.Equal(t, "задачи клиента Рулев за этот месяц "+tt.text, out.Text)
			assert.Equal(t, tt.wantRewrites, out.Rewrites)
			assert.Equal(t, RulesVersion, out.RulesVersion)
			tt.check(t, out.Extra)
		})
	}
}

func TestHandler_Execute_DoesNotMutatePrior(t *testing.T) {
	store := setupStore(t, priorTurn())
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), &Input{UserID: "u1", ChannelID: "c1", Text: "это сотрудник"})
	require.NoError(t, err)

	prior, err := store.Load(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Рулев", models.Deref(prior.LastEntities.ClientName))
}

func TestHandler_Execute_Validation(t *testing.T) {
	h := createTestHandler(t, setupStore(t, nil))

	_, err := h.Execute(context.Background(), &Input{Text: "а закрытые"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
