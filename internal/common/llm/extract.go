package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reasoningBlock = regexp.MustCompile(`(?is)<(think|thinking|reasoning)>.*?</(think|thinking|reasoning)>`)
	openReasoning  = regexp.MustCompile(`(?is)<(think|thinking|reasoning)>.*$`)
	markupTag      = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9_-]*(\s[^<>]*)?/?>`)
	queryLabel     = regexp.MustCompile(`(?i)^\s*(jql|query)\s*:\s*`)
	codeFence      = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*(.*?)\\s*```$")
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// StripReasoning removes reasoning blocks, including one the model never
// closed.
func StripReasoning(s string) string {
	s = reasoningBlock.ReplaceAllString(s, "")
	return openReasoning.ReplaceAllString(s, "")
}

// StripTags removes markup tags but keeps their text.
func StripTags(s string) string {
	return markupTag.ReplaceAllString(s, "")
}

// ExtractJSON returns the last balanced {...} object in raw output.
// Braces inside JSON strings are ignored.
func ExtractJSON(raw string) (string, error) {
	text := StripTags(StripReasoning(raw))

	var (
		last     string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				last = text[start : i+1]
				start = -1
			}
		}
	}

	if last == "" {
		return "", fmt.Errorf("%w: no JSON object in model output", ErrExtractionFailed)
	}
	return last, nil
}

// ExtractQuery cleans a bare query string. Only surrounding backticks and
// quotes are removed; inner quotes and parentheses are kept intact.
func ExtractQuery(raw string) (string, error) {
	text := strings.TrimSpace(StripTags(StripReasoning(raw)))
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = queryLabel.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	text = trimWrapping(text)

	if text == "" {
		return "", fmt.Errorf("%w: empty query in model output", ErrExtractionFailed)
	}
	return text, nil
}

func trimWrapping(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '`' && first != '\'' && first != '"') {
			break
		}
		inner := s[1 : len(s)-1]
		// `"a" AND "b"` starts and ends with quotes but is not wrapped.
		if strings.IndexByte(inner, first) >= 0 {
			break
		}
		s = strings.TrimSpace(inner)
	}
	return strings.Trim(s, "`")
}
