// internal/workers/nlq/extract-entities/prompt.go
package extractentities

import "fmt"

const instruction = `Ты извлекаешь сущности из запроса к Jira. Отвечай ТОЛЬКО JSON.

time_period: "сегодня", "вчера", "эта неделя", "прошлая неделя", "этот месяц", "прошлый месяц",
"последняя неделя", "последний месяц", месяц ("июль"), "N дней" для "старше N дней", "последние N дней" для "за последние N дней".
status_intent: "open" (открытые, активные), "closed" (закрытые, готовые, завершенные), "all".
query_type: "count" (сколько), "analytics" (статистика), "list" (найди, покажи, список), "ranking" (топ), "search".
issue_type: "Bug", "Task", "Epic", "Story".
assignee: "UNASSIGNED" (без исполнителя), "CURRENT_USER" (мои, мне), иначе имя как в тексте.
priority: "High", "Medium", "Low".
project_key: ключ проекта, только если он явно указан.

Пример: "сколько багов закрыли в июле"
{"issue_type": "Bug", "status_intent": "closed", "time_period": "июль", "query_type": "count"}

Формат ответа:
{"client_name": null, "assignee": null, "time_period": null, "search_text": null, "issue_type": null,
"priority": null, "project_key": null, "status_intent": "all", "query_type": "search"}`

func userText(text string) string {
	return fmt.Sprintf("ВОПРОС: %q\n\nОТВЕТ ТОЛЬКО JSON:", text)
}
