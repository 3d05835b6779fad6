// internal/workers/nlq/synthesize-query/prompt.go
package synthesizequery

import (
	"fmt"
	"strings"

	"jira-askbot/internal/models"
)

const instruction = `Ты должен создать JQL запрос. Отвечай ТОЛЬКО JQL без объяснений.

Правила:
- project = "KEY" для поиска в конкретном проекте
- (summary ~ "ТЕКСТ" OR description ~ "ТЕКСТ") для поиска по содержимому
- created >= startOfMonth() для "этого месяца", created >= startOfWeek() для "этой недели"
- assignee is EMPTY для неназначенных, assignee = currentUser() для "моих"
- используй только известные проекты и пользователей из контекста

Примеры:
Вход: "задачи в проекте ABC"
Выход: project = "ABC"

Вход: "найди задачи про Power BI"
Выход: (summary ~ "Power BI" OR description ~ "Power BI")

Вход: "новые задачи этого месяца"
Выход: created >= startOfMonth()`

// userText renders the question with what is already known about it.
func userText(text string, intent models.Intent, projectKey string, known *models.Mappings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ВОПРОС: %q\n", text)
	if intent.Type != "" {
		fmt.Fprintf(&b, "Тип запроса: %s\n", intent.Type)
	}
	if projectKey != "" {
		fmt.Fprintf(&b, "Проект: %q\n", projectKey)
	}
	if known != nil {
		if len(known.Clients) > 0 {
			parts := make([]string, len(known.Clients))
			for i, c := range known.Clients {
				parts[i] = fmt.Sprintf("%q → %q", c.ClientName, c.ProjectKey)
			}
			fmt.Fprintf(&b, "Клиенты: %s\n", strings.Join(parts, ", "))
		}
		if len(known.Users) > 0 {
			parts := make([]string, len(known.Users))
			for i, u := range known.Users {
				parts[i] = fmt.Sprintf("%q → %q", u.DisplayName, u.Username)
			}
			fmt.Fprintf(&b, "Пользователи: %s\n", strings.Join(parts, ", "))
		}
	}
	b.WriteString("\nСоздай JQL:")
	return b.String()
}
