// internal/workers/nlq/classify-intent/prompt.go
package classifyintent

import "fmt"

const instruction = `Ты анализируешь вопросы к боту Jira. Верни только JSON без пояснений.

Типы intent:
- "analytics": подсчеты, статистика
- "search": поиск конкретных задач
- "worklog": списание времени
- "status": статусы и прогресс задач
- "chart": нужна визуализация

parameters:
- chart_type: "pie" (круговая), "bar" (столбчатая), "line" (линейная)
- group_by: "status", "project", "priority", "assignee", "issue_type" ("по проектам", "в разрезе статусов")
- status: статус, если назван

Пример:
Вход: "количество открытых задач в разрезе проектов круговой диаграммой"
Выход: {"intent": "analytics", "needs_chart": true, "parameters": {"status": "открытых", "chart_type": "pie", "group_by": "project"}}`

func userText(text string) string {
	return fmt.Sprintf("Вопрос пользователя: %q", text)
}
