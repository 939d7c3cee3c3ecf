package timeparse

import (
	"regexp"
	"strings"
	"time"
)

// Event holds what could be read out of a dictated calendar request.
// Fields that were not found are left empty.
type Event struct {
	Date      string
	StartTime string
	EndTime   string
	Title     string
}

var (
	mentionRe   = regexp.MustCompile(`@\w+`)
	koFillerRe  = regexp.MustCompile(`\s*(?:일정|약속)?\s*(?:을|를)?\s*(?:추가|등록|생성|잡아|넣어|만들어|예약)\S*\s*$`)
	enFillerRe  = regexp.MustCompile(`(?i)^(?:please\s+)?(?:add|schedule|create|set up|book)\s+(?:an?\s+)?(?:(?:event|meeting|appointment)\s+)?(?:called|named|titled)?\s*`)
	leadingRe   = regexp.MustCompile(`(?i)^(?:에는|에서|에|on|at|for|,)\s+`)
	trailingRe  = regexp.MustCompile(`(?i)\s+(?:on|at|for|에)$`)
	collapseRe  = regexp.MustCompile(`\s+`)
	titleTrimCh = " \t,.;:-"
)

// ExtractEvent pulls a date, a time range and a title out of a whole
// utterance such as "내일 오전 10시부터 11시까지 팀 미팅".
//
// An end time given without 오전/오후 or AM/PM follows the start's
// afternoon shift when that keeps it after the start, and rolls into the
// afternoon when it would otherwise end before it started.
func ExtractEvent(text string, now time.Time) Event {
	var ev Event
	rest := mentionRe.ReplaceAllString(text, " ")

	if t, loc, ok := findDate(rest, now); ok {
		ev.Date = t.Format(DateLayout)
		rest = cut(rest, loc)
	}

	if loc := rangeRe.FindStringSubmatchIndex(rest); loc != nil {
		start, errS := parseClock(rest[loc[2]:loc[3]])
		end, errE := parseClock(rest[loc[4]:loc[5]])
		if errS == nil && errE == nil {
			end = alignEnd(start, end)
			ev.StartTime, ev.EndTime = start.String(), end.String()
			rest = cut(rest, loc[:2])
		}
	}
	if ev.StartTime == "" {
		if loc := singleRe.FindStringSubmatchIndex(rest); loc != nil {
			if start, err := parseClock(rest[loc[2]:loc[3]]); err == nil {
				ev.StartTime = start.String()
				rest = cut(rest, loc[:2])
			}
		}
	}

	ev.Title = cleanTitle(rest)
	return ev
}

func alignEnd(start, end clock) clock {
	if end.m != noMeridiem {
		return end
	}
	if start.m == pm && end.hour < 12 && end.minutes()+12*60 > start.minutes() {
		end.hour += 12
		return end
	}
	if end.minutes() <= start.minutes() && end.hour < 12 {
		end.hour += 12
	}
	return end
}

func cut(s string, loc []int) string {
	return s[:loc[0]] + " " + s[loc[1]:]
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(collapseRe.ReplaceAllString(s, " "))
	s = koFillerRe.ReplaceAllString(s, "")
	s = enFillerRe.ReplaceAllString(s, "")
	s = leadingRe.ReplaceAllString(s, "")
	s = trailingRe.ReplaceAllString(s, "")
	return strings.Trim(s, titleTrimCh)
}
