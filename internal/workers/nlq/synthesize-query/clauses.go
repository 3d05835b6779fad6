// internal/workers/nlq/synthesize-query/clauses.go
package synthesizequery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jira-askbot/internal/common/textmatch"
	"jira-askbot/internal/models"
)

const (
	clauseUnassigned  = "assignee is EMPTY"
	clauseCurrentUser = "assignee = currentUser()"
	clauseLast30Days  = "created >= -30d"
	clauseMyWeek      = "assignee = currentUser() AND created >= startOfWeek()"
)

var relativePeriods = map[string]string{
	models.PeriodToday:     "created >= startOfDay()",
	models.PeriodYesterday: "created >= startOfDay(-1) AND created < startOfDay()",
	models.PeriodThisWeek:  "created >= startOfWeek()",
	models.PeriodLastWeek:  "created >= startOfWeek(-1) AND created < startOfWeek()",
	models.PeriodThisMonth: "created >= startOfMonth()",
	models.PeriodLastMonth: "created >= startOfMonth(-1) AND created < startOfMonth()",
	models.PeriodPastWeek:  "created >= -7d",
	models.PeriodPastMonth: "created >= -30d",
}

// timeClause maps a period token to a created-date clause. Month names
// resolve against the year of now. "последние N дней" is a window ending
// now; "N дней" means older than N days. Unknown tokens yield "".
func timeClause(token string, now time.Time) string {
	token = models.CanonicalPeriod(token)
	if token == "" {
		return ""
	}
	if clause, ok := relativePeriods[token]; ok {
		return clause
	}
	if days, ok := models.ParseWindow(token); ok {
		return fmt.Sprintf("created >= -%dd", days)
	}
	if month, ok := models.ParseMonth(token); ok {
		return monthRange(now.Year(), month)
	}
	if days, ok := models.ParseDays(token); ok {
		return fmt.Sprintf("created <= -%dd", days)
	}
	return ""
}

func monthRange(year int, month time.Month) string {
	nextYear, nextMonth := year, month+1
	if month == time.December {
		nextYear, nextMonth = year+1, time.January
	}
	return fmt.Sprintf(`created >= "%d-%02d-01" AND created < "%d-%02d-01"`,
		year, int(month), nextYear, int(nextMonth))
}

var (
	openCategories   = map[string]bool{"to do": true, "indeterminate": true, "new": true, "in progress": true, "к выполнению": true, "в работе": true}
	closedCategories = map[string]bool{"done": true, "complete": true, "closed": true, "выполнено": true, "готово": true}

	openNames = map[string]bool{"открыт": true, "открыто": true, "новый": true, "создан": true, "создано": true, "open": true, "new": true}

	inWork   = textmatch.Prefix("работ")
	negation = textmatch.Word("не")

	closedKeywords = []string{"закрыт", "готово", "заверш", "отмен", "cancel", "done", "closed", "resolved"}
	activeWords    = []string{"работе", "progress", "открыт", "open", "новый", "new", "к выполнению", "для выполнения",
		"отобрано", "назначено", "в очереди", "ожидание", "планирование"}

	fallbackOpen   = []string{"Открыт", "В работе"}
	fallbackClosed = []string{"Закрыт", "Готово", "Отменен"}
)

func isOpenStatus(r models.DictionaryRecord) bool {
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if openCategories[category] {
		return true
	}
	if closedCategories[category] {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if inWork.Match(name) && !negation.Match(name) {
		return true
	}
	return openNames[name]
}

func isClosedStatus(r models.DictionaryRecord) bool {
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if closedCategories[category] {
		return true
	}
	if openCategories[category] {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(r.Name))
	for _, w := range activeWords {
		if strings.Contains(name, w) {
			return false
		}
	}
	for _, k := range closedKeywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return strings.HasSuffix(name, "выполнено")
}

// statusNames picks the statuses matching intent, sorted and without
// duplicates. It returns nil for StatusAll.
func statusNames(statuses []models.DictionaryRecord, intent models.StatusIntent) []string {
	var match func(models.DictionaryRecord) bool
	switch intent {
	case models.StatusOpen:
		match = isOpenStatus
	case models.StatusClosed:
		match = isClosedStatus
	default:
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, r := range statuses {
		if r.Name == "" || seen[r.Name] || !match(r) {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

func statusClause(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return fmt.Sprintf("status in (%s)", strings.Join(quoted, ", "))
}

func textClause(text string) string {
	q := quote(text)
	return fmt.Sprintf("(summary ~ %s OR description ~ %s)", q, q)
}

// fallbackClause keeps an otherwise empty query constrained.
func fallbackClause(queryType models.QueryType, projectKey string) string {
	switch {
	case queryType.Aggregate():
		return clauseLast30Days
	case projectKey != "":
		return "project = " + quote(projectKey)
	default:
		return clauseMyWeek
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}
