package calendar

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "sharecal/internal/log"
	"sharecal/internal/store"
)

// maxOccurrencesPerEntry is a safety cap so a runaway rule (e.g. secondly
// frequency) cannot flood a month window.
const maxOccurrencesPerEntry = 500

// expandRecurring materializes a recurring entry into concrete occurrence
// rows inside [winStart, winEnd). Each occurrence keeps the base entry's id,
// so a mutation applied to any occurrence moves the series anchor.
//
// A rule that fails to parse yields no occurrences; the bad rule is logged
// and the entry simply stays off the calendar rather than failing the whole
// aggregation pass.
func expandRecurring(row store.EntryRow, winStart, winEnd time.Time, loc *time.Location) []store.EntryRow {
	r, err := rrule.StrToRRule(row.RRule)
	if err != nil {
		appLog.Error("calendar: failed to parse rrule", err, "entry", row.ID, "rrule", row.RRule)
		return nil
	}
	r.DTStart(row.StartAt)

	var set rrule.Set
	set.RRule(r)

	// Between is inclusive on both bounds; the aggregator's half-open month
	// filter trims an occurrence landing exactly on winEnd.
	starts := set.Between(winStart.In(row.StartAt.Location()), winEnd.In(row.StartAt.Location()), true)
	if len(starts) > maxOccurrencesPerEntry {
		appLog.Error("calendar: truncated occurrences for entry",
			errors.New("max occurrences reached"),
			"entry", row.ID, "cap", maxOccurrencesPerEntry)
		starts = starts[:maxOccurrencesPerEntry]
	}

	out := make([]store.EntryRow, 0, len(starts))
	for _, occStart := range starts {
		occ := row
		occ.RRule = ""

		if row.AllDay {
			// All-day: each occurrence covers [date 00:00, next day 00:00)
			// in the display timezone, matching the stored exclusive-end
			// convention.
			day := DayOf(occStart, loc)
			occ.StartAt = day
			occ.EndAt = day.AddDate(0, 0, 1)
		} else {
			occ.StartAt = occStart
			if row.EndAt.IsZero() {
				occ.EndAt = time.Time{}
			} else {
				occ.EndAt = occStart.Add(row.EndAt.Sub(row.StartAt))
			}
		}
		out = append(out, occ)
	}
	return out
}
