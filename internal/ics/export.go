// Package ics serializes aggregated calendar items into an iCalendar feed so
// external calendar clients can subscribe to the same view the month grid
// shows.
package ics

import (
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"

	"sharecal/internal/calendar"
	"sharecal/internal/model"
)

const prodID = "-//sharecal//calendar feed//EN"

// Export serializes the given items into a VCALENDAR payload. Items without
// a start timestamp are skipped, matching the layout boundary's filter.
//
// All-day spans are emitted with DATE-valued DTSTART/DTEND and the exclusive
// end convention (DTEND is the day after the last included day), which is
// exactly how the store keeps them.
func Export(calName string, items []*model.CalendarItem, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName(calName)

	for _, it := range items {
		if it.StartAt.IsZero() {
			continue
		}
		addEvent(cal, it, loc)
	}

	out := cal.Serialize()
	if out == "" {
		return nil, errors.New("ics: empty serialization")
	}
	return []byte(out), nil
}

func addEvent(cal *ical.Calendar, it *model.CalendarItem, loc *time.Location) {
	// (kind, id) is the stable identity across rebuilds; reuse it as UID so
	// re-exports update rather than duplicate events in subscribing clients.
	ev := cal.AddEvent(string(it.Kind) + "-" + it.ID + "@sharecal")
	ev.SetDtStampTime(time.Now().UTC())
	ev.SetSummary(it.DisplayTitle)

	switch it.Status {
	case model.StatusActive, model.StatusDone:
		ev.SetStatus(ical.ObjectStatusConfirmed)
	case model.StatusPending:
		ev.SetStatus(ical.ObjectStatusTentative)
	}

	if it.AllDay {
		start := it.StartAt.In(loc)
		ev.SetAllDayStartAt(start)
		end := it.EndAt
		if end.IsZero() {
			end = start.AddDate(0, 0, 1)
		} else {
			end = end.In(loc)
			// A non-midnight end still covers its own day in the grid, so
			// the exclusive DTEND moves past it; a midnight end is already
			// exclusive and passes through.
			if day := calendar.DayOf(end, loc); !end.Equal(day) {
				end = day.AddDate(0, 0, 1)
			}
		}
		ev.SetAllDayEndAt(end)
		return
	}

	ev.SetStartAt(it.StartAt.In(loc))
	if it.HasEnd() {
		ev.SetEndAt(it.EndAt.In(loc))
	}
}
