// Package textmatch builds Unicode-aware word matchers for the rule tiers.
// regexp's \b only knows ASCII word characters, so Cyrillic boundaries are
// spelled out as "not a letter or digit".
package textmatch

import (
	"regexp"
	"strings"
)

const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}])`
	rightBoundary = `(?:$|[^\p{L}\p{N}])`
)

// Matcher reports whether text contains one of its phrases.
type Matcher struct {
	re *regexp.Regexp
}

func build(phrases []string, right string) *Matcher {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(p)))
		quoted = append(quoted, strings.ReplaceAll(p, " ", `\s+`))
	}
	return &Matcher{re: regexp.MustCompile(`(?i)` + leftBoundary + `(?:` + strings.Join(quoted, "|") + `)` + right)}
}

// Prefix matches phrases that start at a word boundary and may continue
// into a longer word, so "закрыт" also matches "закрытые".
func Prefix(phrases ...string) *Matcher {
	return build(phrases, "")
}

// Word matches whole words only, so "мне" does not match "мнение".
func Word(phrases ...string) *Matcher {
	return build(phrases, rightBoundary)
}

// Pattern is Prefix for raw expressions, for phrases whose inner words
// inflect ("прошл\p{L}*\s+недел").
func Pattern(exprs ...string) *Matcher {
	return &Matcher{re: regexp.MustCompile(`(?i)` + leftBoundary + `(?:` + strings.Join(exprs, "|") + `)`)}
}

// Any combines matchers into one that matches when any of them does.
func Any(ms ...*Matcher) *Matcher {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = "(?:" + m.re.String() + ")"
	}
	return &Matcher{re: regexp.MustCompile(strings.Join(parts, "|"))}
}

func (m *Matcher) Match(text string) bool {
	return m.re.MatchString(text)
}

// Fold lower-cases and collapses whitespace.
func Fold(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
