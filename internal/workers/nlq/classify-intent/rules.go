// internal/workers/nlq/classify-intent/rules.go
package classifyintent

import (
	"jira-askbot/internal/common/textmatch"
	"jira-askbot/internal/models"
)

// RulesVersion identifies the rule table below. Bump it whenever a phrase
// or the rule order changes.
const RulesVersion = "intent/2"

type intentRule struct {
	intent models.IntentType
	match  *textmatch.Matcher
}

type paramRule struct {
	value string
	match *textmatch.Matcher
}

// Order matters: worklog phrases are checked before the analytics ones so
// "сколько времени списал" stays a worklog question. Bare "час" and "время"
// are left out because they collide with ordinary analytics questions.
var intentRules = []intentRule{
	{models.IntentWorklog, textmatch.Prefix(
		"списал", "списано", "трудозатрат", "залогир", "worklog", "time spent", "logged", "часов", "сколько времени",
	)},
	{models.IntentAnalytics, textmatch.Prefix(
		"сколько", "количество", "статистик", "аналитик", "подсч", "count", "how many", "statistics",
	)},
	{models.IntentChart, visualization},
	{models.IntentStatus, textmatch.Prefix("статус", "прогресс", "status", "progress")},
}

// "покажи" is not a visualization word: "покажи задачи" wants a list.
var visualization = textmatch.Prefix("график", "диаграмм", "визуализ", "chart", "graph", "plot")

var chartTypeRules = []paramRule{
	{"pie", textmatch.Prefix("круг", "pie")},
	{"line", textmatch.Prefix("линейн", "line")},
	{"bar", textmatch.Prefix("столбч", "bar")},
}

var groupByRules = []paramRule{
	{"status", textmatch.Prefix("по статус", "в разрезе статус", "by status")},
	{"assignee", textmatch.Prefix("по исполнител", "в разрезе исполнител", "by assignee")},
	{"project", textmatch.Prefix("по проект", "в разрезе проект", "by project")},
	{"priority", textmatch.Prefix("по приоритет", "в разрезе приоритет", "by priority")},
	{"issuetype", textmatch.Prefix("по тип", "в разрезе тип", "by type", "by issue type")},
}

// ClassifyByRules is the deterministic tier. It never fails; anything that
// matches no rule is a search.
func ClassifyByRules(text string) models.Intent {
	intent := models.Intent{
		Type:       models.IntentSearch,
		NeedsChart: visualization.Match(text),
		Source:     models.SourceRules,
	}
	for _, r := range intentRules {
		if r.match.Match(text) {
			intent.Type = r.intent
			break
		}
	}

	params := map[string]string{}
	if v := firstMatch(chartTypeRules, text); v != "" {
		params[models.ParamChartType] = v
	}
	if v := firstMatch(groupByRules, text); v != "" {
		params[models.ParamGroupBy] = v
	}
	if len(params) > 0 {
		intent.Parameters = params
	}
	return intent
}

func firstMatch(rules []paramRule, text string) string {
	for _, r := range rules {
		if r.match.Match(text) {
			return r.value
		}
	}
	return ""
}
