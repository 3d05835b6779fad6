// internal/workers/nlq/classify-intent/handler_test.go
package classifyintent

import (
	"context"
	"errors"
	"testing"

	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/llm"
	"jira-askbot/internal/common/llm/llmtest"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T, completer llm.Completer) *Handler {
	return NewHandler(LoadConfig(), completer, logger.NewTestLogger(t))
}

func TestHandler_Execute_ModelReply(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantIntent models.IntentType
		wantChart  bool
		wantParams map[string]string
	}{
		{
			name:       "plain json",
			reply:      `{"intent": "analytics", "needs_chart": false, "parameters": {"group_by": "issue_type"}}`,
			wantIntent: models.IntentAnalytics,
			wantParams: map[string]string{models.ParamGroupBy: "issuetype"},
		},
		{
			name: "reasoning block and trailing prose",
			reply: `<think>пользователь хочет {график}</think>
Ответ: {"intent": "chart", "needs_chart": true, "parameters": {"chart_type": "pie", "unknown": "x"}} готово`,
			wantIntent: models.IntentChart,
			wantChart:  true,
			wantParams: map[string]string{models.ParamChartType: "pie"},
		},
		{
			name:       "null parameters",
			reply:      `{"intent": "search", "parameters": null}`,
			wantIntent: models.IntentSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := llmtest.New(map[string]string{llm.TemplateIntent: tt.reply})
			h := createTestHandler(t, completer)

			out, err := h.Execute(context.Background(), &Input{Text: "вопрос"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, out.Intent.Type)
			assert.Equal(t, tt.wantChart, out.Intent.NeedsChart)
			assert.Equal(t, tt.wantParams, out.Intent.Parameters)
			assert.Equal(t, models.SourceLLM, out.Intent.Source)
			assert.Empty(t, out.RulesVersion)

			calls := completer.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, 0.1, calls[0].Temperature)
			assert.Equal(t, int64(300), calls[0].MaxTokens)
		})
	}
}

func TestHandler_Execute_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name      string
		completer llm.Completer
	}{
		{"model unavailable", llmtest.Failing(llm.ErrModelUnavailable)},
		{"disabled model", llm.Disabled{}},
		{"no json", llmtest.New(map[string]string{llm.TemplateIntent: "не знаю"})},
		{"schema violation", llmtest.New(map[string]string{llm.TemplateIntent: `{"intent": "weather"}`})},
		{"wrong types", llmtest.New(map[string]string{llm.TemplateIntent: `{"intent": "search", "needs_chart": "yes"}`})},
		{"timeout", llmtest.Failing(context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.completer)

			out, err := h.Execute(context.Background(), &Input{Text: "сколько багов закрыли в июле"})
			require.NoError(t, err)
			assert.Equal(t, models.IntentAnalytics, out.Intent.Type)
			assert.Equal(t, models.SourceRules, out.Intent.Source)
			assert.Equal(t, RulesVersion, out.RulesVersion)
		})
	}
}

func TestHandler_Execute_EmptyText(t *testing.T) {
	h := createTestHandler(t, llmtest.New(nil))

	_, err := h.Execute(context.Background(), &Input{Text: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "model_unavailable", fallbackReason(llm.ErrModelUnavailable))
	assert.Equal(t, "invalid_reply", fallbackReason(ErrInvalidModelReply))
	assert.Equal(t, "extraction_failed", fallbackReason(llm.ErrExtractionFailed))
	assert.Equal(t, "extraction_failed", fallbackReason(errors.New("other")))
}
