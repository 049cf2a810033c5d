package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sharecal/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeSpan_NoEndCollapsesToStartDay(t *testing.T) {
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 14, 45, 0, 0, time.UTC),
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 5, 30), span.StartDay)
	assert.Equal(t, span.StartDay, span.EndDay)
}

func TestNormalizeSpan_AllDayMidnightEndPulledBack(t *testing.T) {
	// All-day ranges store an exclusive end: midnight of the day after the
	// last included day. 05-30 .. 06-02T00:00 means "through 06-01".
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		AllDay:  true,
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 5, 30), span.StartDay)
	assert.Equal(t, day(2024, 6, 1), span.EndDay)
}

func TestNormalizeSpan_AllDayNonMidnightEndTruncates(t *testing.T) {
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC),
		AllDay:  true,
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 6, 2), span.EndDay)
}

func TestNormalizeSpan_TimedEndNoCorrection(t *testing.T) {
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 5, 30, 17, 0, 0, 0, time.UTC),
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 5, 30), span.StartDay)
	assert.Equal(t, day(2024, 5, 30), span.EndDay)
}

func TestNormalizeSpan_TimedMidnightEndNotPulledBack(t *testing.T) {
	// The exclusive-end correction only applies to all-day items.
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 22, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 5, 31), span.EndDay)
}

func TestNormalizeSpan_EndBeforeStartClamped(t *testing.T) {
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 5, 28, 9, 0, 0, 0, time.UTC),
	}

	span := NormalizeSpan(it, time.UTC)

	assert.Equal(t, day(2024, 5, 30), span.StartDay)
	assert.Equal(t, day(2024, 5, 30), span.EndDay)
}

func TestNormalizeSpan_MidnightCheckUsesDisplayZone(t *testing.T) {
	seoul := mustLoc(t, "Asia/Seoul")

	// 2024-06-02T00:00 KST stored as UTC is 2024-06-01T15:00Z; the midnight
	// test must run in the display zone, not the stored zone.
	it := &model.CalendarItem{
		StartAt: time.Date(2024, 5, 30, 15, 0, 0, 0, time.UTC), // 05-31 00:00 KST
		EndAt:   time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),  // 06-02 00:00 KST
		AllDay:  true,
	}

	span := NormalizeSpan(it, seoul)

	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, seoul), span.StartDay)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, seoul), span.EndDay)
}
