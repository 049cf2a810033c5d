package calendar

import "time"

const (
	// GridRows and GridCols define the fixed month window: 6 week rows of 7
	// days each, 42 cells total.
	GridRows = 6
	GridCols = 7
)

// Cell is one day slot of the month grid. Cells belonging to the leading or
// trailing neighbor month are kept (layout math applies to them identically)
// and flagged for dimming.
type Cell struct {
	Day     time.Time
	InMonth bool
}

// WeekBounds are the inclusive day bounds of one grid row.
type WeekBounds struct {
	Start time.Time
	End   time.Time
}

// Grid is the fixed 6x7 cell window for one target month. It is a pure
// function of (year, month, weekStart, loc) and carries no item data.
type Grid struct {
	Year  int
	Month time.Month

	// MonthStart is the first day of the target month; MonthEnd is the first
	// day of the following month (half-open window bound).
	MonthStart time.Time
	MonthEnd   time.Time

	Cells [GridRows * GridCols]Cell
	Weeks [GridRows]WeekBounds
}

// BuildGrid computes the month grid for the given target month. The first
// cell is monthStart moved back to the nearest weekStart day, so with the
// default Sunday start the anchor is monthStart minus its weekday index.
func BuildGrid(year int, month time.Month, weekStart time.Weekday, loc *time.Location) Grid {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	back := (int(monthStart.Weekday()) - int(weekStart) + 7) % 7
	anchor := monthStart.AddDate(0, 0, -back)

	g := Grid{
		Year:       year,
		Month:      month,
		MonthStart: monthStart,
		MonthEnd:   monthEnd,
	}

	for i := range g.Cells {
		day := anchor.AddDate(0, 0, i)
		g.Cells[i] = Cell{
			Day:     day,
			InMonth: !day.Before(monthStart) && day.Before(monthEnd),
		}
	}
	for w := 0; w < GridRows; w++ {
		g.Weeks[w] = WeekBounds{
			Start: g.Cells[w*GridCols].Day,
			End:   g.Cells[w*GridCols+GridCols-1].Day,
		}
	}
	return g
}

// daysBetween returns the whole-day distance from a to b. Both are expected
// to be day-truncated in the same location; DST shifts are absorbed by
// rounding the raw hour difference.
func daysBetween(a, b time.Time) int {
	hours := b.Sub(a).Hours()
	if hours >= 0 {
		return int(hours/24 + 0.5)
	}
	return -int(-hours/24 + 0.5)
}
