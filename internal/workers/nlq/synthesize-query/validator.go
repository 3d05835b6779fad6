// internal/workers/nlq/synthesize-query/validator.go
package synthesizequery

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"jira-askbot/internal/common/textmatch"
)

const minQueryLength = 5

var (
	ErrQueryLength     = errors.New("QUERY_LENGTH")
	ErrQueryNoFields   = errors.New("QUERY_NO_FIELDS")
	ErrQueryLooksProse = errors.New("QUERY_LOOKS_LIKE_PROSE")
)

var (
	fieldKeywords = textmatch.Word("project", "created", "updated", "resolved", "status", "assignee", "reporter",
		"issuetype", "priority", "summary", "description", "text", "labels", "worklogAuthor", "worklogDate")

	proseMarkers = textmatch.Word("okay", "let's", "tackle", "the user", "asking", "first", "i need",
		"я думаю", "давайте", "пользователь хочет")

	quotedLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
)

// ValidateQuery rejects model output that is not a plausible query.
// Quoted literals are ignored when looking for fields and prose.
func ValidateQuery(query string, maxLength int) error {
	n := utf8.RuneCountInString(query)
	if n < minQueryLength || n > maxLength {
		return fmt.Errorf("%w: %d characters, want %d..%d", ErrQueryLength, n, minQueryLength, maxLength)
	}

	bare := quotedLiteral.ReplaceAllString(query, `""`)
	if !fieldKeywords.Match(bare) {
		return ErrQueryNoFields
	}
	if proseMarkers.Match(bare) {
		return ErrQueryLooksProse
	}
	return nil
}
