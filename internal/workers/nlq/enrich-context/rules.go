// internal/workers/nlq/enrich-context/rules.go
package enrichcontext

import (
	"regexp"
	"strings"

	"jira-askbot/internal/common/textmatch"
	"jira-askbot/internal/models"
)

// RulesVersion identifies the indicator and rewrite tables.
const RulesVersion = "context/1"

// followUp marks text that refines the previous question.
var followUp = textmatch.Word(
	"а у", "а для", "а по", "а закрытые", "а открытые", "также", "ещё", "еще", "и еще", "и ещё",
	"добавь", "включи", "исключи", "убери", "замени",
	"это сотрудник", "это работник", "это пользователь",
	"and what about", "what about", "and for", "also", "add", "exclude", "remove", "replace",
	"is an employee", "is actually an employee", "closed ones", "open ones",
)

type rewrite struct {
	name  string
	apply func(text string, bag *models.EntityBag) bool
}

// rewrites run in order against the inherited entities. Each reports
// whether it changed anything.
var rewrites = []rewrite{
	{"employee", rewriteEmployee},
	{"and-for-name", rewriteAndFor},
	{"status-flip", rewriteStatus},
}

var employee = textmatch.Prefix(
	"это сотрудник", "это работник", "это пользователь",
	"is an employee", "is actually an employee", "is a colleague",
)

// rewriteEmployee reinterprets a name first read as a client.
func rewriteEmployee(text string, bag *models.EntityBag) bool {
	if bag.ClientName == nil || !employee.Match(text) {
		return false
	}
	bag.AssigneeRaw, bag.ClientName = bag.ClientName, nil
	return true
}

var andFor = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?i:а\s+у|а\s+для|and\s+for|what\s+about)\s+` +
	`(?:((?i:клиента?|client))\s+)?` +
	`["«]?([\p{L}][\p{L}\p{N}.&-]*(?:\s+\p{Lu}[\p{L}\p{N}.&-]*)?)`)

var (
	selfWords   = map[string]bool{"меня": true, "мне": true, "me": true}
	statusWords = textmatch.Prefix("закрыт", "открыт", "незакрыт", "готов", "closed", "open", "done")
)

func rewriteAndFor(text string, bag *models.EntityBag) bool {
	m := andFor.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	name := strings.TrimSpace(m[2])
	switch {
	case m[1] != "":
		bag.ClientName = models.StringPtr(name)
		bag.ProjectKey = nil
	case selfWords[strings.ToLower(name)]:
		bag.AssigneeRaw = models.StringPtr(models.AssigneeCurrentUser)
	case statusWords.Match(name):
		return false
	default:
		bag.AssigneeRaw = models.StringPtr(name)
	}
	return true
}

var (
	closedFlip = textmatch.Pattern(`а\s+(?:закрыт|готов|выполнен)`, `(?:and\s+)?closed\s+ones`, `what\s+about\s+closed`)
	openFlip   = textmatch.Pattern(`а\s+(?:открыт|незакрыт|активн)`, `(?:and\s+)?open\s+ones`, `what\s+about\s+open`)
)

func rewriteStatus(text string, bag *models.EntityBag) bool {
	switch {
	case closedFlip.Match(text):
		bag.StatusIntent = models.StatusClosed
	case openFlip.Match(text):
		bag.StatusIntent = models.StatusOpen
	default:
		return false
	}
	return true
}
