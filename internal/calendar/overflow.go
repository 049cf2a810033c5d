package calendar

import (
	"sort"

	"sharecal/internal/model"
)

// DayDetail lists every item touching one grid cell, independent of lane
// truncation, plus the count hidden beyond the visible-bar budget. It feeds
// the on-demand "show all" view for a day.
type DayDetail struct {
	Items       []*model.CalendarItem
	HiddenCount int
}

// ResolveDay collects the items of every lane assignment in the week whose
// segment touches column col. Items are deduplicated by (kind, id) and
// sorted by display title; HiddenCount counts the distinct items among them
// that sit on a lane at or beyond maxVisible.
func ResolveDay(week WeekLayout, col int, maxVisible int) DayDetail {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisibleBars
	}

	detail := DayDetail{Items: []*model.CalendarItem{}}
	seen := make(map[model.Key]bool)
	hidden := make(map[model.Key]bool)

	for _, la := range week.Assignments {
		seg := la.Segment
		if col < seg.ColStart || col > seg.ColEnd {
			continue
		}
		key := seg.Item.ItemKey()
		if !seen[key] {
			seen[key] = true
			detail.Items = append(detail.Items, seg.Item)
		}
		if la.Lane >= maxVisible && !hidden[key] {
			hidden[key] = true
			detail.HiddenCount++
		}
	}

	sort.SliceStable(detail.Items, func(i, j int) bool {
		return detail.Items[i].DisplayTitle < detail.Items[j].DisplayTitle
	})
	return detail
}
