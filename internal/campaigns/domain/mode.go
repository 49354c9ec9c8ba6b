package domain

import (
	"strings"
	"time"
)

// Mode decides whether the visit ledger is part of the analysis.
type Mode string

const (
	ModePreEvent  Mode = "pre_event"
	ModePostEvent Mode = "post_event"
)

const dateLayout = "2006-01-02"

// ParseMode accepts pre_event/post_event, with dashes or underscores.
func ParseMode(raw string) (Mode, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_") {
	case string(ModePreEvent):
		return ModePreEvent, true
	case string(ModePostEvent):
		return ModePostEvent, true
	default:
		return "", false
	}
}

// IncludesVisits reports whether point-of-sale visits are consulted.
func (m Mode) IncludesVisits() bool { return m == ModePostEvent }

// SelectMode returns explicit when set. Otherwise an event date on or before
// today's calendar date selects post-event; a future, missing or unreadable
// date selects pre-event.
func SelectMode(explicit Mode, eventDate string, today time.Time) Mode {
	if explicit != "" {
		return explicit
	}
	if eventDate == "" {
		return ModePreEvent
	}
	if _, err := time.Parse(dateLayout, eventDate); err != nil {
		return ModePreEvent
	}
	if eventDate <= today.Format(dateLayout) {
		return ModePostEvent
	}
	return ModePreEvent
}

// Window is the inclusive date range the ledgers are queried for.
type Window struct {
	From string
	To   string
}

// AnalysisWindow is the event day alone when one is given, otherwise the
// span from the campaign's send date to today. Dates are taken in loc.
func AnalysisWindow(eventDate string, sentAt, today time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	if eventDate != "" {
		return Window{From: eventDate, To: eventDate}
	}
	from := sentAt.In(loc).Format(dateLayout)
	to := today.In(loc).Format(dateLayout)
	if sentAt.IsZero() || from > to {
		from = to
	}
	return Window{From: from, To: to}
}
