// Package calendar is the aggregation and layout engine behind the shared
// month view. It merges schedule entries and single-schedule groups into one
// canonical item model, normalizes their timestamps to inclusive day spans,
// and packs them into non-overlapping lanes on a fixed 6x7 month grid.
//
// Everything below the I/O boundary (span, grid, lane, overflow derivation)
// is pure and rebuilt from scratch on every pass; nothing derived is ever
// persisted or patched in place.
package calendar

import (
	"time"

	"sharecal/internal/model"
)

// DayOf truncates a timestamp to its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// isMidnight reports whether t has a zero time-of-day component in loc.
func isMidnight(t time.Time, loc *time.Location) bool {
	lt := t.In(loc)
	return lt.Hour() == 0 && lt.Minute() == 0 && lt.Second() == 0 && lt.Nanosecond() == 0
}

// NormalizeSpan converts an item's (StartAt, EndAt, AllDay) triple into the
// inclusive day span the layout operates on. It is total: any input with a
// non-zero StartAt yields a valid span.
//
// All-day ranges are stored with an exclusive end (midnight of the day after
// the last included day), so an all-day end landing exactly on midnight is
// pulled back one day before truncation. Without this a two-day all-day
// event would paint three cells.
func NormalizeSpan(item *model.CalendarItem, loc *time.Location) model.Span {
	startDay := DayOf(item.StartAt, loc)

	endDay := startDay
	if item.HasEnd() {
		if item.AllDay && isMidnight(item.EndAt, loc) {
			endDay = DayOf(item.EndAt.In(loc).AddDate(0, 0, -1), loc)
		} else {
			endDay = DayOf(item.EndAt, loc)
		}
	}

	// Malformed input: end before start renders as a single day.
	if endDay.Before(startDay) {
		endDay = startDay
	}

	return model.Span{Item: item, StartDay: startDay, EndDay: endDay}
}
