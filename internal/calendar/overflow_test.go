package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharecal/internal/model"
)

func TestResolveDay_FiveItemsThreeVisible(t *testing.T) {
	wk := week(day(2024, 5, 5))

	var spans []model.Span
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		spans = append(spans, spanFor(name, day(2024, 5, 7), day(2024, 5, 7)))
	}
	layout := PackWeek(spans, wk, 3)

	detail := ResolveDay(layout, 2, 3)

	assert.Len(t, detail.Items, 5)
	assert.Equal(t, 2, detail.HiddenCount)
}

func TestResolveDay_OnlyTouchingColumn(t *testing.T) {
	wk := week(day(2024, 5, 5))
	layout := PackWeek([]model.Span{
		spanFor("mon-wed", day(2024, 5, 6), day(2024, 5, 8)),
		spanFor("fri", day(2024, 5, 10), day(2024, 5, 10)),
	}, wk, 3)

	detail := ResolveDay(layout, 2, 3)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "mon-wed", detail.Items[0].DisplayTitle)
	assert.Zero(t, detail.HiddenCount)

	empty := ResolveDay(layout, 6, 3)
	assert.Empty(t, empty.Items)
}

func TestResolveDay_ItemsSortedByDisplayTitle(t *testing.T) {
	wk := week(day(2024, 5, 5))
	layout := PackWeek([]model.Span{
		spanFor("zeta", day(2024, 5, 7), day(2024, 5, 7)),
		spanFor("alpha", day(2024, 5, 7), day(2024, 5, 7)),
		spanFor("mid", day(2024, 5, 5), day(2024, 5, 11)),
	}, wk, 3)

	detail := ResolveDay(layout, 2, 3)
	require.Len(t, detail.Items, 3)
	assert.Equal(t, "alpha", detail.Items[0].DisplayTitle)
	assert.Equal(t, "mid", detail.Items[1].DisplayTitle)
	assert.Equal(t, "zeta", detail.Items[2].DisplayTitle)
}

func TestResolveDay_DeduplicatesByKindAndID(t *testing.T) {
	wk := week(day(2024, 5, 5))

	// Same (kind, id) surfacing twice in one row, e.g. two occurrences of
	// a recurring entry landing on the same day.
	it := &model.CalendarItem{Kind: model.KindEntry, ID: "x", DisplayTitle: "x"}
	spans := []model.Span{
		{Item: it, StartDay: day(2024, 5, 7), EndDay: day(2024, 5, 7)},
		{Item: it, StartDay: day(2024, 5, 7), EndDay: day(2024, 5, 8)},
	}
	layout := PackWeek(spans, wk, 3)

	detail := ResolveDay(layout, 2, 3)
	assert.Len(t, detail.Items, 1)
}

func TestResolveDay_HiddenCountCountsDistinctItems(t *testing.T) {
	wk := week(day(2024, 5, 5))

	var spans []model.Span
	for _, name := range []string{"a", "b", "c", "d"} {
		spans = append(spans, spanFor(name, day(2024, 5, 7), day(2024, 5, 7)))
	}
	layout := PackWeek(spans, wk, 1)

	detail := ResolveDay(layout, 2, 1)
	assert.Len(t, detail.Items, 4)
	assert.Equal(t, 3, detail.HiddenCount)
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	return loc
}
