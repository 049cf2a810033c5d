package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharecal/internal/model"
)

func TestExport_TimedEvent(t *testing.T) {
	items := []*model.CalendarItem{{
		Kind:         model.KindEntry,
		ID:           "e1",
		DisplayTitle: "집안일 · 청소",
		Status:       model.StatusActive,
		StartAt:      time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2024, 5, 30, 17, 0, 0, 0, time.UTC),
	}}

	out, err := Export("test", items, time.UTC)
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "ENTRY-e1@sharecal")
	assert.Contains(t, body, "STATUS:CONFIRMED")
	assert.Contains(t, body, "END:VCALENDAR")
}

func TestExport_AllDayUsesDateValues(t *testing.T) {
	items := []*model.CalendarItem{{
		Kind:         model.KindContainer,
		ID:           "g1",
		DisplayTitle: "제주 여행",
		Status:       model.StatusPending,
		StartAt:      time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC),
		AllDay:       true,
	}}

	out, err := Export("test", items, time.UTC)
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "VALUE=DATE")
	assert.Contains(t, body, "20240520")
	// Exclusive DTEND: the stored end is already the day after the last
	// included day and passes through unchanged.
	assert.Contains(t, body, "20240523")
}

func TestExport_AllDayNonMidnightEndCoversItsDay(t *testing.T) {
	items := []*model.CalendarItem{{
		Kind:         model.KindContainer,
		ID:           "g2",
		DisplayTitle: "행사",
		Status:       model.StatusPending,
		StartAt:      time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2024, 5, 22, 15, 0, 0, 0, time.UTC),
		AllDay:       true,
	}}

	out, err := Export("test", items, time.UTC)
	require.NoError(t, err)

	body := string(out)
	// The grid renders this item through May 22, so the exclusive DTEND is
	// May 23, not a truncation of the malformed end.
	assert.Contains(t, body, "DTEND;VALUE=DATE:20240523")
	assert.NotContains(t, body, "DTEND;VALUE=DATE:20240522")
}

func TestExport_SkipsItemsWithoutStart(t *testing.T) {
	items := []*model.CalendarItem{
		{Kind: model.KindEntry, ID: "no-start", DisplayTitle: "없음"},
		{
			Kind: model.KindEntry, ID: "ok", DisplayTitle: "있음",
			StartAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	out, err := Export("test", items, time.UTC)
	require.NoError(t, err)

	body := string(out)
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
	assert.NotContains(t, body, "no-start")
}
