package calendar

import (
	"sort"
	"time"

	"sharecal/internal/model"
)

// DefaultMaxVisibleBars caps how many lanes a week row renders directly.
// Segments packed beyond this lane stay in the model for the day-detail
// view but are excluded from the primary bar list.
const DefaultMaxVisibleBars = 3

// WeekLayout is the packed result for one grid row.
type WeekLayout struct {
	WeekStart time.Time
	WeekEnd   time.Time

	// Assignments holds every segment of the row, including those beyond
	// the visible-bar budget. Bars is the visible subset.
	Assignments []model.LaneAssignment
	Bars        []model.LaneAssignment

	// LaneCount is the total number of lanes the row needed, for vertical
	// sizing.
	LaneCount int
}

// clipToWeek clips a span to one grid row. The second return is false when
// the span does not touch the row at all.
func clipToWeek(span model.Span, wk WeekBounds) (model.WeekSegment, bool) {
	if span.EndDay.Before(wk.Start) || span.StartDay.After(wk.End) {
		return model.WeekSegment{}, false
	}

	start := span.StartDay
	if start.Before(wk.Start) {
		start = wk.Start
	}
	end := span.EndDay
	if end.After(wk.End) {
		end = wk.End
	}

	seg := model.WeekSegment{
		Item:        span.Item,
		ColStart:    clampCol(daysBetween(wk.Start, start)),
		ColEnd:      clampCol(daysBetween(wk.Start, end)),
		IsSpanStart: start.Equal(span.StartDay),
		IsSpanEnd:   end.Equal(span.EndDay),
	}
	return seg, true
}

func clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c > GridCols-1 {
		return GridCols - 1
	}
	return c
}

// PackWeek clips every span to the row and greedily assigns lanes so that
// segments sharing a lane never overlap. Segments are placed in
// (colStart, displayTitle) order; each takes the first lane whose last
// occupied column is strictly left of its start column. The ordering is the
// determinism contract, not a minimality claim.
func PackWeek(spans []model.Span, wk WeekBounds, maxVisible int) WeekLayout {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisibleBars
	}

	segs := make([]model.WeekSegment, 0, len(spans))
	for _, sp := range spans {
		if seg, ok := clipToWeek(sp, wk); ok {
			segs = append(segs, seg)
		}
	}

	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].ColStart != segs[j].ColStart {
			return segs[i].ColStart < segs[j].ColStart
		}
		return segs[i].Item.DisplayTitle < segs[j].Item.DisplayTitle
	})

	layout := WeekLayout{
		WeekStart:   wk.Start,
		WeekEnd:     wk.End,
		Assignments: make([]model.LaneAssignment, 0, len(segs)),
	}

	// laneLast[i] is the last occupied column of lane i, or -1 when empty.
	var laneLast []int
	for _, seg := range segs {
		lane := -1
		for i, last := range laneLast {
			if last < seg.ColStart {
				lane = i
				break
			}
		}
		if lane == -1 {
			lane = len(laneLast)
			laneLast = append(laneLast, -1)
		}
		laneLast[lane] = seg.ColEnd

		la := model.LaneAssignment{Segment: seg, Lane: lane}
		layout.Assignments = append(layout.Assignments, la)
		if lane < maxVisible {
			layout.Bars = append(layout.Bars, la)
		}
	}

	layout.LaneCount = len(laneLast)
	return layout
}
