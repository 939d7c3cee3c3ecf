// Package timeparse reads the free-form date and time phrases people use
// when dictating calendar entries, in Korean and English.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrUnrecognized = errors.New("unrecognized date/time expression")

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	months    = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	koHours   = `\d{1,2}|열두|열한|열|한|두|세|네|다섯|여섯|일곱|여덟|아홉`
	koPeriods = `오전|오후|아침|새벽|낮|저녁|밤`

	enClockPat = `\d{1,2}(?::\d{2})?\s*[ap]\.?m\b\.?`
	koClockPat = `(?:(?:` + koPeriods + `)\s*)?(?:` + koHours + `)\s*시(?:\s*(?:반|\d{1,2}\s*분))?`
	hhmmPat    = `\d{1,2}:\d{2}`
	namedPat   = `정오|자정|noon|midnight`
	clockPat   = `(?:` + enClockPat + `|` + koClockPat + `|` + hhmmPat + `|` + namedPat + `)`
)

var (
	enClockRe  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b`)
	koClockRe  = regexp.MustCompile(`(` + koPeriods + `)?\s*(` + koHours + `)\s*시(?:\s*(반|(\d{1,2})\s*분))?`)
	hhmmRe     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	noonRe     = regexp.MustCompile(`(?i)정오|noon`)
	midnightRe = regexp.MustCompile(`(?i)자정|midnight`)

	rangeRe  = regexp.MustCompile(`(?i)(?:from\s+)?(` + clockPat + `)\s*(?:부터|에서|~|–|-|\bto\b|\buntil\b|\btill\b)\s*(` + clockPat + `)(?:\s*까지)?`)
	singleRe = regexp.MustCompile(`(?i)(?:\bat\s+)?(` + clockPat + `)(?:\s*에)?`)
)

var koHourWords = map[string]int{
	"한": 1, "두": 2, "세": 3, "네": 4, "다섯": 5, "여섯": 6,
	"일곱": 7, "여덟": 8, "아홉": 9, "열": 10, "열한": 11, "열두": 12,
}

type meridiem int

const (
	noMeridiem meridiem = iota
	am
	pm
)

// clock is a parsed time of day. hour is already 24-hour when m is set.
type clock struct {
	hour, minute int
	m            meridiem
}

func (c clock) String() string { return fmt.Sprintf("%02d:%02d", c.hour, c.minute) }

func (c clock) minutes() int { return c.hour*60 + c.minute }

// ParseTime converts a time phrase to "HH:MM" on a 24-hour clock.
func ParseTime(expr string) (string, error) {
	c, err := parseClock(expr)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func parseClock(expr string) (clock, error) {
	s := strings.ToLower(strings.TrimSpace(expr))

	switch {
	case noonRe.MatchString(s):
		return clock{hour: 12, m: pm}, nil
	case midnightRe.MatchString(s):
		return clock{hour: 0, m: am}, nil
	}

	if m := enClockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mer := am
		if m[3] == "p" {
			mer = pm
		}
		return build(h, atoiOr(m[2], 0), mer, expr)
	}

	if m := koClockRe.FindStringSubmatch(s); m != nil {
		h, ok := koHourWords[m[2]]
		if !ok {
			h, _ = strconv.Atoi(m[2])
		}
		minute := 0
		switch {
		case m[3] == "반":
			minute = 30
		case m[4] != "":
			minute = atoiOr(m[4], 0)
		}
		mer := noMeridiem
		switch m[1] {
		case "오전", "아침", "새벽":
			mer = am
		case "오후", "낮":
			mer = pm
		case "저녁", "밤":
			mer = pm
			if h == 12 {
				// 밤 12시 is midnight.
				mer = am
			}
		}
		return build(h, minute, mer, expr)
	}

	if m := hhmmRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return build(h, atoiOr(m[2], 0), noMeridiem, expr)
	}

	return clock{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
}

func build(h, minute int, mer meridiem, expr string) (clock, error) {
	if minute < 0 || minute > 59 {
		return clock{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
	}
	switch mer {
	case am:
		if h < 1 || h > 12 {
			return clock{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
		}
		if h == 12 {
			h = 0
		}
	case pm:
		if h < 1 || h > 12 {
			return clock{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
		}
		if h != 12 {
			h += 12
		}
	default:
		if h < 0 || h > 23 {
			return clock{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
		}
	}
	return clock{hour: h, minute: minute, m: mer}, nil
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

type datePattern struct {
	re    *regexp.Regexp
	parse func(m []string, now time.Time) (time.Time, bool)
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0), now)
	}},
	{regexp.MustCompile(`\b(\d{4})[-./](\d{1,2})[-./](\d{1,2})\b`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0), now)
	}},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(now.Year(), atoiOr(m[1], 0), atoiOr(m[2], 0), now)
	}},
	{regexp.MustCompile(`(?i)\b(` + months + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4}))?`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(atoiOr(m[3], now.Year()), monthNumber(m[1]), atoiOr(m[2], 0), now)
	}},
	{regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + months + `)\b\.?(?:,?\s*(\d{4}))?`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(atoiOr(m[3], now.Year()), monthNumber(m[2]), atoiOr(m[1], 0), now)
	}},
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`), func(m []string, now time.Time) (time.Time, bool) {
		return ymd(now.Year(), atoiOr(m[1], 0), atoiOr(m[2], 0), now)
	}},
	{regexp.MustCompile(`(?i)day after tomorrow|내일\s*모레|모레|tomorrow|내일|today|오늘|yesterday|어제`), func(m []string, now time.Time) (time.Time, bool) {
		return now.AddDate(0, 0, relativeDays(strings.ToLower(m[0]))), true
	}},
}

func relativeDays(word string) int {
	switch {
	case word == "day after tomorrow" || strings.Contains(word, "모레"):
		return 2
	case word == "tomorrow" || word == "내일":
		return 1
	case word == "yesterday" || word == "어제":
		return -1
	default:
		return 0
	}
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	if len(name) > 3 {
		name = name[:3]
	}
	for i, m := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if name == m {
			return i + 1
		}
	}
	return 0
}

func ymd(y, m, d int, now time.Time) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, now.Location())
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// findDate returns the first date phrase in text and its byte span.
func findDate(text string, now time.Time) (time.Time, []int, bool) {
	for _, p := range datePatterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		if t, ok := p.parse(m, now); ok {
			return t, loc[:2], true
		}
	}
	return time.Time{}, nil, false
}

// ParseDate converts a date phrase to "YYYY-MM-DD", relative to now.
// A date without a year falls in now's year.
func ParseDate(expr string, now time.Time) (string, error) {
	t, _, ok := findDate(strings.TrimSpace(expr), now)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognized, expr)
	}
	return t.Format(DateLayout), nil
}
