package classifyintent

import (
	"testing"

	"jira-askbot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyByRules(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantIntent models.IntentType
		wantChart  bool
		wantParams map[string]string
	}{
		{
			name:       "closed bugs in july is analytics",
			text:       "сколько багов закрыли в июле",
			wantIntent: models.IntentAnalytics,
		},
		{
			name:       "worklog beats analytics",
			text:       "сколько времени списал Иванов на прошлой неделе",
			wantIntent: models.IntentWorklog,
		},
		{
			name:       "bare hour word is not worklog",
			text:       "задачи созданные за последний час",
			wantIntent: models.IntentSearch,
		},
		{
			name:       "english worklog",
			text:       "time spent by Petrov this month",
			wantIntent: models.IntentWorklog,
		},
		{
			name:       "chart with type and grouping",
			text:       "круговая диаграмма задач по статусам",
			wantIntent: models.IntentChart,
			wantChart:  true,
			wantParams: map[string]string{models.ParamChartType: "pie", models.ParamGroupBy: "status"},
		},
		{
			name:       "analytics wins over chart but chart flag is kept",
			text:       "количество задач по проектам в виде графика",
			wantIntent: models.IntentAnalytics,
			wantChart:  true,
			wantParams: map[string]string{models.ParamGroupBy: "project"},
		},
		{
			name:       "show is not a visualization word",
			text:       "покажи мои задачи",
			wantIntent: models.IntentSearch,
		},
		{
			name:       "status question",
			text:       "какой прогресс по задаче ABC-1",
			wantIntent: models.IntentStatus,
		},
		{
			name:       "bar chart in english",
			text:       "bar chart of issues by assignee",
			wantIntent: models.IntentChart,
			wantChart:  true,
			wantParams: map[string]string{models.ParamChartType: "bar", models.ParamGroupBy: "assignee"},
		},
		{
			name:       "default search",
			text:       "найди задачи про Power BI",
			wantIntent: models.IntentSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyByRules(tt.text)
			assert.Equal(t, tt.wantIntent, got.Type)
			assert.Equal(t, tt.wantChart, got.NeedsChart)
			assert.Equal(t, tt.wantParams, got.Parameters)
			assert.Equal(t, models.SourceRules, got.Source)
		})
	}
}
