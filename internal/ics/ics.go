// Package ics renders single-event iCalendar documents.
package ics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prodID      = "-//deskvox//voice assistant//EN"
	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
)

// Event is a calendar entry. Start and End are written as floating local
// times so the receiving calendar places them in its own zone.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	Created time.Time
}

// NewEvent fills in a fresh UID and creation time.
func NewEvent(summary string, start, end time.Time) Event {
	return Event{
		UID:     uuid.NewString(),
		Summary: summary,
		Start:   start,
		End:     end,
		Created: time.Now(),
	}
}

func (e Event) Render() string {
	stamp := e.Created.UTC().Format(utcLayout)
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + e.UID,
		"DTSTAMP:" + stamp,
		"CREATED:" + stamp,
		"DTSTART:" + e.Start.Format(localLayout),
		"DTEND:" + e.End.Format(localLayout),
		"SUMMARY:" + escape(e.Summary),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// WriteFile writes the event to dir/<uid>.ics and returns the path.
func (e Event) WriteFile(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create calendar dir: %w", err)
	}
	path := filepath.Join(dir, e.UID+".ics")
	if err := os.WriteFile(path, []byte(e.Render()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

var escaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escape(s string) string { return escaper.Replace(s) }
