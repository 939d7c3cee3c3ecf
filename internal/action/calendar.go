package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"deskvox/internal/ics"
	"deskvox/internal/nlu"
	"deskvox/internal/osauto"
	"deskvox/internal/timeparse"
)

type eventWindow struct {
	title      string
	start, end time.Time
}

// parseEvent reads date, startTime, endTime and title from the intent,
// taking whatever the classifier left out from the original utterance.
func (d *Dispatcher) parseEvent(in nlu.Intent) (eventWindow, error) {
	now := d.now()

	var extracted *timeparse.Event
	fromText := func() timeparse.Event {
		if extracted == nil {
			ev := timeparse.ExtractEvent(in.OriginalCommand, now)
			extracted = &ev
		}
		return *extracted
	}

	date := in.Param("date")
	if date == "" {
		date = fromText().Date
	} else {
		var err error
		if date, err = timeparse.ParseDate(date, now); err != nil {
			return eventWindow{}, fmt.Errorf("date: %w", err)
		}
	}

	clockParam := func(key string, pick func(timeparse.Event) string) (string, error) {
		v := in.Param(key)
		if v == "" {
			return pick(fromText()), nil
		}
		t, err := timeparse.ParseTime(v)
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		return t, nil
	}
	startTime, err := clockParam("startTime", func(e timeparse.Event) string { return e.StartTime })
	if err != nil {
		return eventWindow{}, err
	}
	endTime, err := clockParam("endTime", func(e timeparse.Event) string { return e.EndTime })
	if err != nil {
		return eventWindow{}, err
	}

	title := strings.TrimSpace(in.Param("title"))
	if title == "" {
		title = fromText().Title
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"date", date}, {"startTime", startTime}, {"endTime", endTime}, {"title", title},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return eventWindow{}, fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), timeparse.ErrUnrecognized)
	}

	layout := timeparse.DateLayout + " " + timeparse.TimeLayout
	start, err := time.ParseInLocation(layout, date+" "+startTime, now.Location())
	if err != nil {
		return eventWindow{}, err
	}
	end, err := time.ParseInLocation(layout, date+" "+endTime, now.Location())
	if err != nil {
		return eventWindow{}, err
	}
	// "오후 2시부터 4시까지" may arrive as separate 14:00 and 04:00 parameters.
	if !end.After(start) && end.Hour() < 12 {
		end = end.Add(12 * time.Hour)
	}
	if !end.After(start) {
		return eventWindow{}, fmt.Errorf("end %s is not after start %s", endTime, startTime)
	}
	return eventWindow{title: title, start: start, end: end}, nil
}

func (d *Dispatcher) calendar(ctx context.Context, in nlu.Intent, lang string) Result {
	ev, err := d.parseEvent(in)
	if err != nil {
		log.Info("Calendar request not understood", "command", in.OriginalCommand, "err", err)
		return fail(in, msg(lang, msgCalendarUnparsed), err)
	}

	var icsPath string
	strategies := []Strategy{
		{Name: "ics", Run: func(ctx context.Context) (string, error) {
			path, err := ics.NewEvent(ev.title, ev.start, ev.end).WriteFile(d.calendarDir)
			if err != nil {
				return "", err
			}
			icsPath = path
			out, err := d.desk.OpenFile(ctx, path)
			return out.Text(), err
		}},
		{Name: "outlook-web", Run: func(ctx context.Context) (string, error) {
			if d.browser == nil || !d.browser.Connected() {
				return "", errors.New("no browser session")
			}
			return "", d.browser.ComposeOutlookEvent(ctx, ev.title, ev.start, ev.end)
		}},
		{Name: "outlook-app", Run: func(ctx context.Context) (string, error) {
			win, err := runChain(ctx, d.calendarAppStrategies(ev))
			return win.Output, err
		}},
	}

	win, err := runChain(ctx, strategies)
	details := map[string]string{
		"date":      ev.start.Format(timeparse.DateLayout),
		"startTime": ev.start.Format(timeparse.TimeLayout),
		"endTime":   ev.end.Format(timeparse.TimeLayout),
		"title":     ev.title,
	}
	if err != nil {
		log.Error("Calendar event not created", "err", err)
		r := fail(in, msg(lang, msgCalendarFailed), err)
		r.Details = details
		return r
	}

	details["strategy"] = win.Name
	if win.Name == "ics" {
		details["file"] = icsPath
	}
	r := ok(in, msg(lang, msgCalendarCreated, details["date"], details["startTime"], details["endTime"], ev.title))
	r.Details = details
	return r
}

// calendarAppStrategies script the desktop calendar apps directly: Outlook,
// Outlook again after a restart, then Calendar.app.
func (d *Dispatcher) calendarAppStrategies(ev eventWindow) []Strategy {
	dates := appleDate("startDate", ev.start) + appleDate("endDate", ev.end)
	outlook := dates + `tell application "Microsoft Outlook"
	activate
	set newEvent to make new calendar event with properties {subject:` + osauto.Quote(ev.title) + `, start time:startDate, end time:endDate}
	open newEvent
end tell
return "created"`
	relaunch := `tell application "Microsoft Outlook" to quit
delay 2
tell application "Microsoft Outlook" to activate
delay 3
` + outlook
	calendarApp := dates + `tell application "Calendar"
	activate
	tell (first calendar whose writable is true)
		make new event with properties {summary:` + osauto.Quote(ev.title) + `, start date:startDate, end date:endDate}
	end tell
end tell
return "created"`

	script := func(name, src string) Strategy {
		return Strategy{Name: name, Run: func(ctx context.Context) (string, error) {
			out, err := d.desk.RunScript(ctx, src)
			return out.Text(), err
		}}
	}
	return []Strategy{
		script("direct", outlook),
		script("relaunch", relaunch),
		script("calendar-app", calendarApp),
	}
}

// appleDate builds an AppleScript date variable. The day is reset to 1
// before the month changes so that e.g. the 31st never overflows.
func appleDate(name string, t time.Time) string {
	return fmt.Sprintf(`set %[1]s to current date
set day of %[1]s to 1
set year of %[1]s to %[2]d
set month of %[1]s to %[3]d
set day of %[1]s to %[4]d
set hours of %[1]s to %[5]d
set minutes of %[1]s to %[6]d
set seconds of %[1]s to 0
`, name, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}
