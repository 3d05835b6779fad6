package extractentities

import (
	"testing"

	"jira-askbot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractByRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.EntityBag
	}{
		{
			name: "closed bugs in july",
			text: "сколько багов закрыли в июле",
			want: models.EntityBag{
				IssueType:    models.StringPtr("Bug"),
				TimePeriod:   models.StringPtr("июль"),
				StatusIntent: models.StatusClosed,
				QueryType:    models.QueryTypeCount,
			},
		},
		{
			name: "client with capitalized name",
			text: "открытые задачи клиента Ромашка Групп за прошлый месяц",
			want: models.EntityBag{
				ClientName:   models.StringPtr("Ромашка Групп"),
				TimePeriod:   models.StringPtr(models.PeriodLastMonth),
				StatusIntent: models.StatusOpen,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "quoted client is not search text",
			text: `покажи баги клиента "Acme Corp"`,
			want: models.EntityBag{
				ClientName:   models.StringPtr("Acme Corp"),
				IssueType:    models.StringPtr("Bug"),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeList,
			},
		},
		{
			name: "unassigned high priority",
			text: "задачи без исполнителя с высоким приоритетом",
			want: models.EntityBag{
				AssigneeRaw:  models.StringPtr(models.AssigneeUnassigned),
				Priority:     models.StringPtr("High"),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "my open tasks",
			text: "мои незакрытые таски",
			want: models.EntityBag{
				AssigneeRaw:  models.StringPtr(models.AssigneeCurrentUser),
				IssueType:    models.StringPtr("Task"),
				StatusIntent: models.StatusOpen,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "older than n days",
			text: "найди открытые задачи старше 30 дней",
			want: models.EntityBag{
				TimePeriod:   models.StringPtr("30 дней"),
				StatusIntent: models.StatusOpen,
				QueryType:    models.QueryTypeList,
			},
		},
		{
			name: "assignee before work verb",
			text: "сколько часов Иванов списал на прошлой неделе",
			want: models.EntityBag{
				AssigneeRaw:  models.StringPtr("Иванов"),
				TimePeriod:   models.StringPtr(models.PeriodLastWeek),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeCount,
			},
		},
		{
			name: "assignee after work verb",
			text: "time logged by Petrov this week",
			want: models.EntityBag{
				AssigneeRaw:  models.StringPtr("Petrov"),
				TimePeriod:   models.StringPtr(models.PeriodThisWeek),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "search text after about",
			text: "задачи про авторизацию в проекте CRM",
			want: models.EntityBag{
				SearchText:   models.StringPtr("авторизацию"),
				ProjectKey:   models.StringPtr("CRM"),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "quoted search text",
			text: `найди «ошибка оплаты» за последние 7 дней`,
			want: models.EntityBag{
				SearchText:   models.StringPtr("ошибка оплаты"),
				IssueType:    models.StringPtr("Bug"),
				TimePeriod:   models.StringPtr(models.PeriodPastWeek),
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeList,
			},
		},
		{
			name: "to do is open not done",
			text: "задачи к выполнению",
			want: models.EntityBag{
				StatusIntent: models.StatusOpen,
				QueryType:    models.QueryTypeSearch,
			},
		},
		{
			name: "ranking",
			text: "топ исполнителей по закрытым задачам",
			want: models.EntityBag{
				StatusIntent: models.StatusClosed,
				QueryType:    models.QueryTypeRanking,
			},
		},
		{
			name: "plural tasks is not a task type",
			text: "show tasks",
			want: models.EntityBag{
				StatusIntent: models.StatusAll,
				QueryType:    models.QueryTypeList,
			},
		},
		{
			name: "empty",
			text: "  ",
			want: models.DefaultEntityBag(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractByRules(tt.text))
		})
	}
}

func TestExtractByRules_MonthGenitiveForms(t *testing.T) {
	for text, want := range map[string]string{
		"задачи за май":       "май",
		"баги с 1 мая":        "май",
		"созданные в декабре": "декабрь",
		"issues from March":   "март",
		"закрытые в сентябре": "сентябрь",
	} {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, want, models.Deref(ExtractByRules(text).TimePeriod))
		})
	}
}

func TestExtractByRules_DayCounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"older than russian", "найди задачи старше 30 дней", "30 дней"},
		{"older than english", "tickets older than 45 days", "45 дней"},
		{"last n days russian", "задачи за последние 14 дней", "последние 14 дней"},
		{"for n days russian", "что изменилось за 5 дней", "последние 5 дней"},
		{"last n days english", "issues created in the last 10 days", "последние 10 дней"},
		{"last 7 days stays past week", "баги за последние 7 дней", models.PeriodPastWeek},
		{"bare day count is not a period", "задача висит в очереди 2 дня", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.Deref(ExtractByRules(tt.text).TimePeriod))
		})
	}
}

func TestExtractByRules_EnglishMay(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"modal verb", "which bugs may block the release", ""},
		{"modal verb first", "may I see open tasks", ""},
		{"month after preposition", "bugs created in May", "май"},
		{"month after since", "tasks closed since may", "май"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.Deref(ExtractByRules(tt.text).TimePeriod))
		})
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Иванов", cleanName("Сколько Иванов"))
	assert.Equal(t, "", cleanName("Кто"))
	assert.Equal(t, "Anna Smith", cleanName("Anna Smith"))
}
