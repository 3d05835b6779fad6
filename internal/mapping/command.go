package mapping

import (
	"errors"
	"regexp"
	"strings"
)

type TeachKind string

const (
	TeachClientKind TeachKind = "client"
	TeachUserKind   TeachKind = "user"
)

// TeachCommand is a parsed "teach" instruction.
type TeachCommand struct {
	Kind  TeachKind `json:"kind"`
	Name  string    `json:"name"`
	Value string    `json:"value"`
}

var (
	ErrNotTeachCommand = errors.New("NOT_TEACH_COMMAND")
	ErrTeachSyntax     = errors.New("INVALID_INPUT: malformed teach command")
)

// TeachUsage is shown when a teach command does not parse.
const TeachUsage = `научи клиент "<имя>" проект "<KEY>"
научи пользователь "<имя>" username "<логин>"
teach client "<name>" project "<key>"
teach user "<name>" username "<handle>"`

const (
	namePattern  = `(?:"([^"]+)"|«([^»]+)»|(.+?))`
	valuePattern = `(?:"([^"]+)"|«([^»]+)»|(\S+))`
)

var (
	teachPrefix = regexp.MustCompile(`(?i)^\s*(?:научи(?:ть)?|teach)(?:\s|$)`)
	teachClient = regexp.MustCompile(`(?i)^\s*(?:научи(?:ть)?|teach)\s+(?:клиент[а-яё]*|client)\s+` + namePattern + `\s+(?:проект[а-яё]*|project)\s+` + valuePattern + `\s*$`)
	teachUser   = regexp.MustCompile(`(?i)^\s*(?:научи(?:ть)?|teach)\s+(?:пользовател[а-яё]*|сотрудник[а-яё]*|user)\s+` + namePattern + `\s+(?:username|login|логин)\s+` + valuePattern + `\s*$`)
)

// ParseTeachCommand parses both teach forms. Names and values may be
// quoted; an unquoted name may span several words.
func ParseTeachCommand(text string) (*TeachCommand, error) {
	if !teachPrefix.MatchString(text) {
		return nil, ErrNotTeachCommand
	}
	if m := teachClient.FindStringSubmatch(text); m != nil {
		return &TeachCommand{
			Kind:  TeachClientKind,
			Name:  firstNonEmpty(m[1:4]),
			Value: strings.ToUpper(firstNonEmpty(m[4:7])),
		}, nil
	}
	if m := teachUser.FindStringSubmatch(text); m != nil {
		return &TeachCommand{
			Kind:  TeachUserKind,
			Name:  firstNonEmpty(m[1:4]),
			Value: firstNonEmpty(m[4:7]),
		}, nil
	}
	return nil, ErrTeachSyntax
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}
