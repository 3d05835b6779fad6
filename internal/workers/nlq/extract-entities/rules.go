// internal/workers/nlq/extract-entities/rules.go
package extractentities

import (
	"regexp"
	"strings"

	"jira-askbot/internal/common/textmatch"
	"jira-askbot/internal/models"
)

// RulesVersion identifies the rule table below. Bump it whenever a rule,
// a phrase list or the rule order changes.
const RulesVersion = "entities/4"

type entityRule struct {
	name  string
	apply func(text string, bag *models.EntityBag)
}

// entityRules run in order; a rule never overwrites a field an earlier
// rule already set.
var entityRules = []entityRule{
	{"client", ruleClient},
	{"project-key", ruleProjectKey},
	{"search-text", ruleSearchText},
	{"assignee-sentinel", ruleAssigneeSentinel},
	{"assignee-name", ruleAssigneeName},
	{"time-period", ruleTimePeriod},
	{"status-intent", ruleStatusIntent},
	{"issue-type", ruleIssueType},
	{"priority", rulePriority},
	{"query-type", ruleQueryType},
}

// ExtractByRules is the deterministic tier. It always returns a usable
// bag; unmatched fields stay nil.
func ExtractByRules(text string) models.EntityBag {
	bag := models.DefaultEntityBag()
	text = strings.TrimSpace(text)
	if text == "" {
		return bag
	}
	for _, r := range entityRules {
		r.apply(text, &bag)
	}
	return bag
}

const (
	lb       = `(?:^|[^\p{L}\p{N}])`
	nameWord = `[\p{L}\p{N}][\p{L}\p{N}._&-]*`
	capWord  = `\p{Lu}[\p{L}\p{N}._&-]*`
)

var (
	clientPattern = regexp.MustCompile(lb + `(?i:клиент(?:а|у|ом|е)?|client)\s+` +
		`(?:"([^"]+)"|«([^»]+)»|(` + nameWord + `(?:\s+` + capWord + `)*))`)

	projectKeyPattern = regexp.MustCompile(lb + `(?i:проект(?:е|а|у)?|project)\s+["«]?([A-Z][A-Z0-9]{1,9})["»]?(?:$|[^\p{L}\p{N}])`)

	quotedPattern = regexp.MustCompile(`"([^"]{2,})"|«([^»]{2,})»`)

	aboutPattern = regexp.MustCompile(lb + `(?i:про|о|об|упоминани\p{L}*|about|mentioning)\s+(.+?)` +
		`(?:\s+(?i:за|в|на|для|у|от|с|in|for|from|since|this|last)(?:\s|$)|[,.?!;]|$)`)
)

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}

func ruleClient(text string, bag *models.EntityBag) {
	if bag.ClientName != nil {
		return
	}
	if m := clientPattern.FindStringSubmatch(text); m != nil {
		if name := firstGroup(m); name != "" {
			bag.ClientName = models.StringPtr(name)
		}
	}
}

func ruleProjectKey(text string, bag *models.EntityBag) {
	if bag.ProjectKey != nil {
		return
	}
	if m := projectKeyPattern.FindStringSubmatch(text); m != nil {
		bag.ProjectKey = models.StringPtr(m[1])
	}
}

func ruleSearchText(text string, bag *models.EntityBag) {
	if bag.SearchText != nil {
		return
	}
	client := models.Deref(bag.ClientName)
	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		if q := firstGroup(m); q != "" && !strings.EqualFold(q, client) {
			bag.SearchText = models.StringPtr(q)
			return
		}
	}
	if m := aboutPattern.FindStringSubmatch(text); m != nil {
		q := strings.Trim(strings.TrimSpace(m[1]), `"«»`)
		if q != "" && !strings.EqualFold(q, client) {
			bag.SearchText = models.StringPtr(q)
		}
	}
}

var (
	unassigned  = textmatch.Prefix("без исполнител", "неназначен", "не назначен", "unassigned")
	currentUser = textmatch.Word("мои", "моих", "мой", "мне", "на мне", "my", "mine")
)

func ruleAssigneeSentinel(text string, bag *models.EntityBag) {
	if bag.AssigneeRaw != nil {
		return
	}
	switch {
	case unassigned.Match(text):
		bag.AssigneeRaw = models.StringPtr(models.AssigneeUnassigned)
	case currentUser.Match(text):
		bag.AssigneeRaw = models.StringPtr(models.AssigneeCurrentUser)
	}
}

const workVerb = `(?i:списал[аи]?|залогировал[аи]?|потратил[аи]?|отчитал(?:ся|ась|ись)|logged|spent|reported)`

var (
	nameAfterVerb  = regexp.MustCompile(lb + workVerb + `\s+(?:(?i:by)\s+)?(` + capWord + `(?:\s+` + capWord + `)?)`)
	nameBeforeVerb = regexp.MustCompile(`(` + capWord + `(?:\s+` + capWord + `)?)\s+` + workVerb + `(?:$|[^\p{L}\p{N}])`)
)

// nameStopWords are capitalized words that sit next to a work verb but are
// never a person.
var nameStopWords = map[string]bool{
	"сколько": true, "кто": true, "как": true, "что": true, "когда": true, "где": true,
	"сегодня": true, "вчера": true, "всего": true, "времени": true, "время": true,
	"часов": true, "часа": true, "задачи": true, "задач": true, "я": true, "мы": true,
	"команда": true, "всех": true, "все": true, "за": true, "на": true, "по": true,
	"who": true, "how": true, "much": true, "time": true, "hours": true, "what": true,
	"today": true, "yesterday": true, "i": true, "we": true, "team": true, "total": true,
}

func cleanName(span string) string {
	var kept []string
	for _, w := range strings.Fields(span) {
		if !nameStopWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func ruleAssigneeName(text string, bag *models.EntityBag) {
	if bag.AssigneeRaw != nil {
		return
	}
	for _, re := range []*regexp.Regexp{nameAfterVerb, nameBeforeVerb} {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := cleanName(m[1]); name != "" {
				bag.AssigneeRaw = models.StringPtr(name)
				return
			}
		}
	}
}

type tokenRule struct {
	token string
	match *textmatch.Matcher
}

var periodRules = []tokenRule{
	{models.PeriodToday, textmatch.Prefix("сегодня", "today")},
	{models.PeriodYesterday, textmatch.Prefix("вчера", "yesterday")},
	{models.PeriodPastWeek, textmatch.Pattern(`последн\p{L}*\s+(?:7\s+дн|недел)`, `past\s+week`, `last\s+7\s+days`)},
	{models.PeriodPastMonth, textmatch.Pattern(`последн\p{L}*\s+(?:30\s+дн|месяц)`, `past\s+month`, `last\s+30\s+days`)},
	{models.PeriodLastWeek, textmatch.Pattern(`прошл\p{L}*\s+недел`, `last\s+week`, `previous\s+week`)},
	{models.PeriodThisWeek, textmatch.Pattern(`эт\p{L}*\s+недел`, `this\s+week`)},
	{models.PeriodLastMonth, textmatch.Pattern(`прошл\p{L}*\s+месяц`, `last\s+month`, `previous\s+month`)},
	{models.PeriodThisMonth, textmatch.Pattern(`эт\p{L}*\s+месяц`, `this\s+month`)},
}

var olderThanDays = regexp.MustCompile(`(?i)(?:старше|older\s+than)\s+(\d{1,4})\s*(?:дн(?:я|ей)|день|days?)`)

func ruleTimePeriod(text string, bag *models.EntityBag) {
	if bag.TimePeriod != nil {
		return
	}
	for _, r := range periodRules {
		if r.match.Match(text) {
			bag.TimePeriod = models.StringPtr(r.token)
			return
		}
	}
	if m := olderThanDays.FindStringSubmatch(text); m != nil {
		if n, ok := models.ParseDays(m[1] + " дней"); ok {
			bag.TimePeriod = models.StringPtr(models.DaysToken(n))
			return
		}
	}
	if n, ok := models.ParseWindow(text); ok {
		bag.TimePeriod = models.StringPtr(models.WindowToken(n))
		return
	}
	if month, ok := models.ParseMonth(text); ok {
		bag.TimePeriod = models.StringPtr(models.MonthToken(month))
	}
}

var (
	openFirst = textmatch.Prefix("незакрыт", "не закрыт", "не выполнен", "не готов", "к выполнению", "not closed", "unresolved", "not done")
	closed    = textmatch.Prefix("закрыт", "закрыл", "готов", "заверш", "выполнен", "отменен", "отменён", "closed", "done", "resolved", "finished")
	open      = textmatch.Prefix("открыт", "активн", "в работе", "open", "in progress", "active")
)

func ruleStatusIntent(text string, bag *models.EntityBag) {
	switch {
	case openFirst.Match(text):
		bag.StatusIntent = models.StatusOpen
	case closed.Match(text):
		bag.StatusIntent = models.StatusClosed
	case open.Match(text):
		bag.StatusIntent = models.StatusOpen
	}
}

var issueTypeRules = []tokenRule{
	{"Bug", textmatch.Prefix("баг", "bug", "ошибк")},
	{"Epic", textmatch.Prefix("эпик", "epic")},
	{"Story", textmatch.Any(textmatch.Prefix("истори"), textmatch.Word("story", "stories"))},
	{"Task", textmatch.Word("таск", "таски", "тасков", "task")},
}

func ruleIssueType(text string, bag *models.EntityBag) {
	if bag.IssueType != nil {
		return
	}
	if v := firstToken(issueTypeRules, text); v != "" {
		bag.IssueType = models.StringPtr(v)
	}
}

var priorityRules = []tokenRule{
	{"High", textmatch.Prefix("высок", "критич", "срочн", "high", "critical", "urgent")},
	{"Low", textmatch.Prefix("низк", "low")},
	{"Medium", textmatch.Prefix("средн", "medium")},
}

func rulePriority(text string, bag *models.EntityBag) {
	if bag.Priority != nil {
		return
	}
	if v := firstToken(priorityRules, text); v != "" {
		bag.Priority = models.StringPtr(v)
	}
}

var queryTypeRules = []tokenRule{
	{string(models.QueryTypeCount), textmatch.Prefix("сколько", "количеств", "how many", "count")},
	{string(models.QueryTypeAnalytics), textmatch.Prefix("статистик", "аналитик", "statistics", "analytics")},
	{string(models.QueryTypeRanking), textmatch.Any(textmatch.Word("топ", "top"), textmatch.Prefix("рейтинг", "больше всего", "ranking"))},
	{string(models.QueryTypeList), textmatch.Prefix("список", "покажи", "найди", "list", "show", "find")},
}

func ruleQueryType(text string, bag *models.EntityBag) {
	if v := firstToken(queryTypeRules, text); v != "" {
		bag.QueryType = models.QueryType(v)
	}
}

func firstToken(rules []tokenRule, text string) string {
	for _, r := range rules {
		if r.match.Match(text) {
			return r.token
		}
	}
	return ""
}
