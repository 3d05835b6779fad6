// internal/bot/commands.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"jira-askbot/internal/common/auth"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/mapping"
	"jira-askbot/internal/models"
)

// Command is a chat command recognized by its first word.
type Command int

const (
	CommandNone Command = iota
	CommandHelp
	CommandAuth
	CommandStatus
	CommandProjects
	CommandCache
	CommandTeach
	CommandMappings
	CommandRefresh
)

var commandNames = map[Command]string{
	CommandHelp:     "help",
	CommandAuth:     "auth",
	CommandStatus:   "status",
	CommandProjects: "projects",
	CommandCache:    "cache",
	CommandTeach:    "teach",
	CommandMappings: "mappings",
	CommandRefresh:  "refresh",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "none"
}

// commandAliases is matched against the lower-cased first word.
var commandAliases = map[string]Command{
	"помощь":      CommandHelp,
	"help":        CommandHelp,
	"авторизация": CommandAuth,
	"auth":        CommandAuth,
	"статус":      CommandStatus,
	"status":      CommandStatus,
	"проекты":     CommandProjects,
	"projects":    CommandProjects,
	"кеш":         CommandCache,
	"cache":       CommandCache,
	"научи":       CommandTeach,
	"teach":       CommandTeach,
	"маппинги":    CommandMappings,
	"mappings":    CommandMappings,
	"обновить":    CommandRefresh,
	"refresh":     CommandRefresh,
}

const (
	projectListLimit = 20
	recentQueryLimit = 5
)

type commandFunc func(ctx context.Context, msg Message) (string, error)

// ParseCommand returns the command a message starts with, or CommandNone.
func ParseCommand(text string) Command {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return CommandNone
	}
	if cmd, ok := commandAliases[fields[0]]; ok {
		return cmd
	}
	return CommandNone
}

func (p *Processor) commandTable() map[Command]commandFunc {
	return map[Command]commandFunc{
		CommandHelp:     p.handleHelp,
		CommandAuth:     p.handleAuth,
		CommandStatus:   p.handleStatus,
		CommandProjects: p.handleProjects,
		CommandCache:    p.handleCache,
		CommandTeach:    p.handleTeach,
		CommandMappings: p.handleMappings,
		CommandRefresh:  p.handleRefresh,
	}
}

const helpText = `🤖 **Ask Bot - помощник по Jira**

**💬 Как пользоваться:**
Просто напишите запрос на естественном языке.

**📝 Примеры запросов:**
• "Покажи мои открытые задачи"
• "Сколько багов в проекте ABC?"
• "Задачи без исполнителя в проекте ABC"
• "Статистика по исполнителям за последний месяц"
• "А у Иванова?" - уточнение предыдущего запроса

**⚙️ Команды:**
• ` + "`помощь`" + ` - это сообщение
• ` + "`авторизация [логин] [токен]`" + ` - войти в Jira
• ` + "`статус`" + ` - проверить авторизацию
• ` + "`проекты`" + ` - доступные проекты
• ` + "`кеш статистика`" + ` / ` + "`кеш очистить`" + ` - кеш
• ` + "`маппинги`" + ` - известные соответствия
• ` + "`обновить`" + ` - обновить справочники Jira

**🎓 Обучение:**
• ` + "`научи клиент \"Название\" проект \"КЛЮЧ\"`" + `
• ` + "`научи пользователь \"Имя\" username \"login\"`" + `

**📊 Графики:**
Добавьте "покажи как график" к любому запросу.`

func (p *Processor) handleHelp(_ context.Context, _ Message) (string, error) {
	return helpText, nil
}

const authUsage = `🔐 **Авторизация в Jira**

**Формат команды:**
` + "`авторизация [логин] [токен]`" + `

**Пример:**
• ` + "`авторизация user@company.com api_token_here`"

func (p *Processor) handleAuth(ctx context.Context, msg Message) (string, error) {
	parts := strings.Fields(msg.Text)
	if len(parts) < 3 {
		return authUsage, nil
	}
	creds := models.Credentials{AccountID: msg.UserID, Username: parts[1], Secret: parts[2]}

	if _, err := p.tracker.Myself(ctx, creds); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeTrackerAuth) {
			return "❌ Неверные учетные данные для Jira. Проверьте логин и токен.", nil
		}
		return "", fmt.Errorf("check credentials: %w", err)
	}
	if err := p.credentials.Save(ctx, msg.UserID, creds); err != nil {
		return "", fmt.Errorf("save credentials: %w", err)
	}

	p.logger.Info("user authorized", map[string]interface{}{"userId": msg.UserID, "username": creds.Username})
	return fmt.Sprintf("✅ Успешная авторизация в Jira как **%s**", creds.Username), nil
}

func (p *Processor) handleStatus(ctx context.Context, msg Message) (string, error) {
	creds, err := p.credentials.Get(ctx, msg.UserID)
	if errors.Is(err, auth.ErrNoCredentials) {
		return notAuthorizedText, nil
	}
	if err != nil {
		return "", err
	}

	name, err := p.tracker.Myself(ctx, *creds)
	if apperrors.HasCode(err, apperrors.ErrCodeTrackerAuth) {
		if err := p.credentials.InvalidateUser(ctx, msg.UserID); err != nil {
			p.logger.Warn("failed to drop stale credentials", map[string]interface{}{"userId": msg.UserID, "error": err.Error()})
		}
		return "❌ Ваши учетные данные устарели. Необходимо повторить авторизацию.", nil
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Вы авторизованы в Jira как **%s**", creds.Username)
	if name != "" && name != creds.Username {
		fmt.Fprintf(&b, " (%s)", name)
	}

	if p.history != nil {
		recent, err := p.history.Recent(ctx, msg.UserID, recentQueryLimit)
		if err != nil {
			p.logger.Warn("failed to load query history", map[string]interface{}{"userId": msg.UserID, "error": err.Error()})
		} else if len(recent) > 0 {
			b.WriteString("\n\n**Последние запросы:**\n")
			for _, h := range recent {
				fmt.Fprintf(&b, "• %s → `%s` (%d)\n", h.Question, h.Query, h.ResultCount)
			}
		}
	}
	return b.String(), nil
}

func (p *Processor) handleProjects(ctx context.Context, msg Message) (string, error) {
	creds, err := p.credentials.Get(ctx, msg.UserID)
	if errors.Is(err, auth.ErrNoCredentials) {
		return notAuthorizedText, nil
	}
	if err != nil {
		return "", err
	}

	dicts, err := p.dictionaries.EnsureFresh(ctx, creds.AccountID)
	if err != nil {
		return "", err
	}
	projects := dicts[models.DictProjects]
	if len(projects) == 0 {
		return "📋 Проекты не найдены или у вас нет доступа к ним.", nil
	}

	var b strings.Builder
	b.WriteString("📋 **Доступные проекты Jira:**\n\n")
	for _, project := range projects[:min(len(projects), projectListLimit)] {
		fmt.Fprintf(&b, "• **%s** - %s\n", project.ID, project.Name)
	}
	if extra := len(projects) - projectListLimit; extra > 0 {
		fmt.Fprintf(&b, "\n... и еще %d проектов", extra)
	}
	return b.String(), nil
}

const cacheUsage = `**Команды кеша:**
• ` + "`кеш очистить`" + ` - очистить ваш кеш
• ` + "`кеш статистика`" + ` - статистика кеша`

func (p *Processor) handleCache(ctx context.Context, msg Message) (string, error) {
	text := strings.ToLower(msg.Text)
	switch {
	case strings.Contains(text, "очистить") || strings.Contains(text, "clear"):
		if err := p.credentials.InvalidateUser(ctx, msg.UserID); err != nil {
			return "", err
		}
		if err := p.dictionaries.Invalidate(ctx, msg.UserID); err != nil {
			return "", err
		}
		return "✅ Ваш кеш очищен", nil

	case strings.Contains(text, "статистик") || strings.Contains(text, "stats"):
		if p.stats == nil {
			return "📊 Статистика кеша недоступна.", nil
		}
		stats, err := p.stats.Stats(ctx)
		if err != nil {
			return "", err
		}
		return formatCacheStats(stats.TotalKeys, stats.ByNamespace), nil

	default:
		return cacheUsage, nil
	}
}

func formatCacheStats(total int, byNamespace map[string]int) string {
	var b strings.Builder
	b.WriteString("📊 **Статистика кеша:**\n\n")
	fmt.Fprintf(&b, "• **Всего ключей:** %d\n", total)
	if len(byNamespace) == 0 {
		return b.String()
	}

	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	b.WriteString("\n**Типы ключей:**\n")
	for _, ns := range namespaces {
		fmt.Fprintf(&b, "• %s: %d\n", ns, byNamespace[ns])
	}
	return b.String()
}

func (p *Processor) handleTeach(ctx context.Context, msg Message) (string, error) {
	cmd, err := mapping.ParseTeachCommand(msg.Text)
	if err != nil {
		return "🎓 **Команды обучения:**\n\n```\n" + mapping.TeachUsage + "\n```", nil
	}

	switch cmd.Kind {
	case mapping.TeachClientKind:
		m, err := p.mappings.TeachClient(ctx, cmd.Name, cmd.Value, msg.UserID)
		if errors.Is(err, mapping.ErrEmptyName) {
			return "❌ Неправильный формат команды. Используйте `научи` для помощи.", nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Отлично! Теперь я знаю, что клиент **\"%s\"** соответствует проекту **\"%s\"**", m.ClientName, m.ProjectKey), nil

	case mapping.TeachUserKind:
		m, err := p.mappings.TeachUser(ctx, cmd.Name, cmd.Value, msg.UserID)
		if errors.Is(err, mapping.ErrEmptyName) {
			return "❌ Неправильный формат команды. Используйте `научи` для помощи.", nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Отлично! Теперь я знаю, что **\"%s\"** соответствует username **\"%s\"**", m.DisplayName, m.Username), nil
	}
	return "❌ Неправильный формат команды. Используйте `научи` для помощи.", nil
}

func (p *Processor) handleMappings(ctx context.Context, _ Message) (string, error) {
	all, err := p.mappings.ListAll(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📋 **Известные маппинги:**\n\n")
	if len(all.Clients) == 0 {
		b.WriteString("**Клиенты → Проекты:** Пока нет\n\n")
	} else {
		b.WriteString("**Клиенты → Проекты:**\n")
		for _, c := range all.Clients {
			fmt.Fprintf(&b, "• **%s** → `%s`\n", c.ClientName, c.ProjectKey)
		}
		b.WriteString("\n")
	}
	if len(all.Users) == 0 {
		b.WriteString("**Пользователи → Username:** Пока нет\n")
	} else {
		b.WriteString("**Пользователи → Username:**\n")
		for _, u := range all.Users {
			fmt.Fprintf(&b, "• **%s** → `%s`\n", u.DisplayName, u.Username)
		}
	}
	b.WriteString("\n💡 Для добавления новых маппингов используйте команду `научи`")
	return b.String(), nil
}

func (p *Processor) handleRefresh(ctx context.Context, msg Message) (string, error) {
	creds, err := p.credentials.Get(ctx, msg.UserID)
	if errors.Is(err, auth.ErrNoCredentials) {
		return notAuthorizedText, nil
	}
	if err != nil {
		return "", err
	}

	if err := p.dictionaries.Invalidate(ctx, creds.AccountID); err != nil {
		return "", err
	}
	report, err := p.dictionaries.Refresh(ctx, creds.AccountID, *creds)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("✅ **Справочники Jira обновлены**\n\n")
	for _, t := range models.AllDictionaryTypes {
		fmt.Fprintf(&b, "• %s: %d\n", t, report.Counts[t])
	}
	if len(report.Failed) > 0 {
		failed := make([]string, len(report.Failed))
		for i, t := range report.Failed {
			failed[i] = string(t)
		}
		fmt.Fprintf(&b, "\n⚠️ Не удалось загрузить: %s", strings.Join(failed, ", "))
	}
	return b.String(), nil
}
