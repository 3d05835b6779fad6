package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical time period tokens carried in EntityBag.TimePeriod.
const (
	PeriodToday     = "сегодня"
	PeriodYesterday = "вчера"
	PeriodThisWeek  = "эта неделя"
	PeriodLastWeek  = "прошлая неделя"
	PeriodThisMonth = "этот месяц"
	PeriodLastMonth = "прошлый месяц"
	PeriodPastWeek  = "последняя неделя"
	PeriodPastMonth = "последний месяц"
)

// Stems match any word they start; exact entries must match a whole word.
// afterPrep entries only count right after a preposition ("in may"), since
// the bare word is also a common verb.
var monthStems = []struct {
	stem      string
	month     time.Month
	exact     bool
	afterPrep bool
}{
	{"январ", time.January, false, false},
	{"феврал", time.February, false, false},
	{"март", time.March, false, false},
	{"апрел", time.April, false, false},
	{"мая", time.May, true, false},
	{"май", time.May, true, false},
	{"мае", time.May, true, false},
	{"июн", time.June, false, false},
	{"июл", time.July, false, false},
	{"август", time.August, false, false},
	{"сентябр", time.September, false, false},
	{"октябр", time.October, false, false},
	{"ноябр", time.November, false, false},
	{"декабр", time.December, false, false},
	{"january", time.January, false, false},
	{"february", time.February, false, false},
	{"march", time.March, false, false},
	{"april", time.April, false, false},
	{"may", time.May, true, true},
	{"june", time.June, false, false},
	{"july", time.July, false, false},
	{"august", time.August, false, false},
	{"september", time.September, false, false},
	{"october", time.October, false, false},
	{"november", time.November, false, false},
	{"december", time.December, false, false},
}

var monthNames = map[time.Month]string{
	time.January:   "январь",
	time.February:  "февраль",
	time.March:     "март",
	time.April:     "апрель",
	time.May:       "май",
	time.June:      "июнь",
	time.July:      "июль",
	time.August:    "август",
	time.September: "сентябрь",
	time.October:   "октябрь",
	time.November:  "ноябрь",
	time.December:  "декабрь",
}

var (
	daysToken   = regexp.MustCompile(`(\d{1,4})\s*(?:дн|день|day)`)
	windowToken = regexp.MustCompile(`(?:последн\p{L}*|за|last|past|within)\s+(?:the\s+)?(?:last\s+|past\s+)?(\d{1,4})\s*(?:дн|день|day)`)

	monthPrepositions = map[string]bool{"in": true, "during": true, "for": true, "since": true, "of": true, "from": true, "until": true}
)

// MonthToken returns the canonical token for m ("июль").
func MonthToken(m time.Month) string {
	return monthNames[m]
}

// DaysToken returns the canonical "N дней" token: created more than N
// days ago.
func DaysToken(n int) string {
	return fmt.Sprintf("%d дней", n)
}

// WindowToken returns the canonical "последние N дней" token: created
// within the last N days.
func WindowToken(n int) string {
	return fmt.Sprintf("последние %d дней", n)
}

// ParseMonth finds a month name in any case form: "июль", "в июле",
// "July".
func ParseMonth(token string) (time.Month, bool) {
	words := strings.FieldsFunc(strings.ToLower(token), isSeparator)
	for i, word := range words {
		for _, ms := range monthStems {
			if word != ms.stem && (ms.exact || !strings.HasPrefix(word, ms.stem)) {
				continue
			}
			if ms.afterPrep && (i == 0 || !monthPrepositions[words[i-1]]) {
				continue
			}
			return ms.month, true
		}
	}
	return 0, false
}

// ParseDays reads the N out of "N дней", "старше 30 дней" or "45 days".
func ParseDays(token string) (int, bool) {
	m := daysToken.FindStringSubmatch(strings.ToLower(token))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseWindow reads the N out of "последние N дней", "за N дней" or
// "last N days".
func ParseWindow(token string) (int, bool) {
	m := windowToken.FindStringSubmatch(strings.ToLower(token))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CanonicalPeriod maps loose model output ("в июле", "за эту неделю") to a
// canonical token. Unknown text is returned trimmed.
func CanonicalPeriod(token string) string {
	t := strings.Join(strings.Fields(strings.ToLower(token)), " ")
	week := strings.Contains(t, "недел") || strings.Contains(t, "week")
	month := strings.Contains(t, "месяц") || strings.Contains(t, "month")
	previous := strings.Contains(t, "прошл") || strings.Contains(t, "last") || strings.Contains(t, "previous")
	past := strings.Contains(t, "последн") || strings.Contains(t, "past")

	switch {
	case t == "":
		return ""
	case strings.Contains(t, "сегодня") || strings.Contains(t, "today"):
		return PeriodToday
	case strings.Contains(t, "вчера") || strings.Contains(t, "yesterday"):
		return PeriodYesterday
	case week && past:
		return PeriodPastWeek
	case week && previous:
		return PeriodLastWeek
	case week:
		return PeriodThisWeek
	case month && past:
		return PeriodPastMonth
	case month && previous:
		return PeriodLastMonth
	case month:
		return PeriodThisMonth
	}
	if n, ok := ParseWindow(t); ok {
		return WindowToken(n)
	}
	if m, ok := ParseMonth(t); ok {
		return MonthToken(m)
	}
	if n, ok := ParseDays(t); ok {
		return DaysToken(n)
	}
	return strings.TrimSpace(token)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == ',' || r == '.' || r == '"' || r == '\'' || r == '«' || r == '»' || r == '?' || r == '!'
}
