// internal/bot/format.go
package bot

import (
	"fmt"
	"sort"
	"strings"

	"jira-askbot/internal/models"
)

const defaultReplyLimit = 10

const authRequiredText = `❌ **Необходимо авторизоваться в Jira**

Используйте команду:
` + "`авторизация [логин] [токен]`" + `

Пример: ` + "`авторизация user@company.com mytoken`"

const notAuthorizedText = `❌ **Вы не авторизованы в Jira**

Для авторизации используйте команду:
` + "`авторизация [логин] [токен]`"

func clientMappingPrompt(clientName string) string {
	return fmt.Sprintf(`🤔 **Я не знаю, какой проект соответствует клиенту "%[1]s"**

Пожалуйста, научите меня:
`+"`научи клиент \"%[1]s\" проект \"КЛЮЧ_ПРОЕКТА\"`"+`

После этого повторите запрос.`, clientName)
}

func userMappingPrompt(displayName string) string {
	return fmt.Sprintf(`🤔 **Не удалось найти пользователя "%[1]s" в Jira**

Пожалуйста, научите меня:
`+"`научи пользователь \"%[1]s\" username \"jira_username\"`", displayName)
}

func formatIssues(result *models.SearchResult, limit int) string {
	if result == nil || len(result.Issues) == 0 {
		return "📋 По вашему запросу задачи не найдены."
	}
	if limit <= 0 {
		limit = defaultReplyLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Найдено задач:** %d\n\n", result.Total)
	shown := min(len(result.Issues), limit)
	for _, issue := range result.Issues[:shown] {
		fmt.Fprintf(&b, "• **%s** - %s\n", issue.Key, issue.Summary)
		fmt.Fprintf(&b, "  Статус: %s", issue.Status)
		if issue.Assignee != "" {
			fmt.Fprintf(&b, ", исполнитель: %s", issue.Assignee)
		}
		b.WriteString("\n\n")
	}
	if extra := result.Total - shown; extra > 0 {
		fmt.Fprintf(&b, "... и еще %d задач(и)", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ChartSpec is a rendering-neutral description of a chart. Labels and
// Values are parallel and ordered by descending count.
type ChartSpec struct {
	Type    string   `json:"type"`
	GroupBy string   `json:"groupBy"`
	Labels  []string `json:"labels"`
	Values  []int    `json:"values"`
}

const (
	chartBar  = "bar"
	chartPie  = "pie"
	chartLine = "line"
)

const noValueLabel = "—"

var groupFields = map[string]func(models.Issue) string{
	"status":    func(i models.Issue) string { return i.Status },
	"assignee":  func(i models.Issue) string { return i.Assignee },
	"project":   func(i models.Issue) string { return i.Project },
	"priority":  func(i models.Issue) string { return i.Priority },
	"issuetype": func(i models.Issue) string { return i.IssueType },
}

// buildChart counts issues per value of the intent's groupBy field,
// status by default. It returns nil when there is nothing to plot.
func buildChart(issues []models.Issue, intent models.Intent) *ChartSpec {
	if len(issues) == 0 {
		return nil
	}

	groupBy := intent.Param(models.ParamGroupBy)
	field, ok := groupFields[groupBy]
	if !ok {
		groupBy = "status"
		field = groupFields[groupBy]
	}

	chartType := intent.Param(models.ParamChartType)
	switch chartType {
	case chartBar, chartPie, chartLine:
	default:
		chartType = chartBar
	}

	counts := map[string]int{}
	for _, issue := range issues {
		label := field(issue)
		if label == "" {
			label = noValueLabel
		}
		counts[label]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	spec := &ChartSpec{Type: chartType, GroupBy: groupBy, Labels: labels, Values: make([]int, len(labels))}
	for i, label := range labels {
		spec.Values[i] = counts[label]
	}
	return spec
}
