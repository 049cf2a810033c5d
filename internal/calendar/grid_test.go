package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid_AnchorAndBounds(t *testing.T) {
	// May 2024 starts on a Wednesday; with a Sunday week start the first
	// cell is April 28.
	g := BuildGrid(2024, time.May, time.Sunday, time.UTC)

	assert.Equal(t, day(2024, 5, 1), g.MonthStart)
	assert.Equal(t, day(2024, 6, 1), g.MonthEnd)
	assert.Equal(t, day(2024, 4, 28), g.Cells[0].Day)
	assert.Equal(t, day(2024, 6, 8), g.Cells[len(g.Cells)-1].Day)
	assert.Len(t, g.Cells, 42)
}

func TestBuildGrid_WeekRowsSpanSevenDays(t *testing.T) {
	g := BuildGrid(2024, time.May, time.Sunday, time.UTC)

	for i, wk := range g.Weeks {
		assert.Equal(t, 6, daysBetween(wk.Start, wk.End), "week %d", i)
		if i > 0 {
			assert.Equal(t, 7, daysBetween(g.Weeks[i-1].Start, wk.Start), "week %d", i)
		}
	}
}

func TestBuildGrid_OutOfMonthCellsFlagged(t *testing.T) {
	g := BuildGrid(2024, time.May, time.Sunday, time.UTC)

	inMonth := 0
	for _, c := range g.Cells {
		if c.InMonth {
			inMonth++
		}
	}
	assert.Equal(t, 31, inMonth)

	assert.False(t, g.Cells[0].InMonth)                // Apr 28
	assert.True(t, g.Cells[3].InMonth)                 // May 1
	assert.False(t, g.Cells[len(g.Cells)-1].InMonth)   // Jun 8
}

func TestBuildGrid_MondayWeekStart(t *testing.T) {
	// September 2024 starts on a Sunday; with Monday as week start the
	// anchor reaches back six days.
	g := BuildGrid(2024, time.September, time.Monday, time.UTC)

	assert.Equal(t, day(2024, 8, 26), g.Cells[0].Day)
	assert.Equal(t, time.Monday, g.Cells[0].Day.Weekday())
}

func TestBuildGrid_MonthStartingOnWeekStart(t *testing.T) {
	// December 2024 starts on a Sunday: no leading cells at all.
	g := BuildGrid(2024, time.December, time.Sunday, time.UTC)

	require.Equal(t, day(2024, 12, 1), g.Cells[0].Day)
	assert.True(t, g.Cells[0].InMonth)
}

func TestBuildGrid_Deterministic(t *testing.T) {
	a := BuildGrid(2025, time.February, time.Sunday, time.UTC)
	b := BuildGrid(2025, time.February, time.Sunday, time.UTC)
	assert.Equal(t, a, b)
}
