package calendar

import (
	"context"
	"sort"
	"time"

	appLog "sharecal/internal/log"
	"sharecal/internal/model"
	"sharecal/internal/store"
)

// RecordSource provides the raw rows the aggregator merges. *store.Store
// satisfies it.
type RecordSource interface {
	EntriesForOwners(ctx context.Context, winStart, winEnd time.Time, ownerIDs []string) ([]store.EntryRow, error)
	SingleScheduleGroups(ctx context.Context, winStart, winEnd time.Time, ownerIDs []string) ([]store.GroupRow, error)
	AccountLabels(ctx context.Context, ids []string) (map[string]string, error)
}

// Advisory reports non-fatal degradation of an aggregation pass: a failing
// upstream shrinks the result instead of aborting it.
type Advisory struct {
	Degraded bool
	Reasons  []string
}

func (a *Advisory) add(reason string) {
	a.Degraded = true
	a.Reasons = append(a.Reasons, reason)
}

// aggregate merges the two record kinds into the canonical item list for the
// half-open month window [monthStart, monthEnd).
//
// Ordering contract: primary sort by StartAt ascending, ties broken by
// DisplayTitle ascending. The lane packer relies on this for deterministic
// lane assignment.
func aggregate(ctx context.Context, src RecordSource, viewerID string, monthStart, monthEnd time.Time, ownerIDs []string, loc *time.Location) ([]*model.CalendarItem, Advisory) {
	var adv Advisory

	labels, err := src.AccountLabels(ctx, ownerIDs)
	if err != nil {
		appLog.Error("calendar: account label lookup failed", err, "viewer", viewerID)
		adv.add("owner labels unavailable")
		labels = map[string]string{}
	}

	var items []*model.CalendarItem

	entries, err := src.EntriesForOwners(ctx, monthStart, monthEnd, ownerIDs)
	if err != nil {
		appLog.Error("calendar: entry fetch failed", err, "viewer", viewerID)
		adv.add("schedule entries unavailable")
	}
	for _, row := range entries {
		if row.RRule != "" {
			for _, occ := range expandRecurring(row, monthStart, monthEnd, loc) {
				if it := entryItem(occ, viewerID, labels); it != nil && inMonthWindow(it, loc, monthStart, monthEnd) {
					items = append(items, it)
				}
			}
			continue
		}
		if it := entryItem(row, viewerID, labels); it != nil && inMonthWindow(it, loc, monthStart, monthEnd) {
			items = append(items, it)
		}
	}

	groups, err := src.SingleScheduleGroups(ctx, monthStart, monthEnd, ownerIDs)
	if err != nil {
		appLog.Error("calendar: single-schedule group fetch failed", err, "viewer", viewerID)
		adv.add("single-schedule groups unavailable")
	}
	for _, row := range groups {
		if it := groupItem(row, viewerID, labels); it != nil && inMonthWindow(it, loc, monthStart, monthEnd) {
			items = append(items, it)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartAt.Equal(items[j].StartAt) {
			return items[i].StartAt.Before(items[j].StartAt)
		}
		return items[i].DisplayTitle < items[j].DisplayTitle
	})

	return items, adv
}

// entryItem converts an entry row into a canonical item, or nil when the row
// has no start and therefore never reaches layout.
func entryItem(row store.EntryRow, viewerID string, labels map[string]string) *model.CalendarItem {
	if row.StartAt.IsZero() {
		return nil
	}

	it := &model.CalendarItem{
		Kind:           model.KindEntry,
		ID:             row.ID,
		ContainerID:    row.GroupID,
		OwnerID:        row.OwnerID,
		Title:          row.Title,
		Status:         row.Status,
		IsConfidential: row.Confidential,
		StartAt:        row.StartAt,
		EndAt:          row.EndAt,
		AllDay:         row.AllDay,
		CanEdit:        row.OwnerID == viewerID,
	}
	it.DisplayTitle = displayTitle(viewerID, row.OwnerID, labels, row.GroupName+" · "+row.Title)
	return it
}

// groupItem converts a single-schedule group row into a canonical item.
// Container items use the group name alone as their title.
func groupItem(row store.GroupRow, viewerID string, labels map[string]string) *model.CalendarItem {
	if row.StartAt.IsZero() {
		return nil
	}

	it := &model.CalendarItem{
		Kind:        model.KindContainer,
		ID:          row.ID,
		ContainerID: row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Name,
		Status:      row.Status,
		StartAt:     row.StartAt,
		EndAt:       row.EndAt,
		AllDay:      row.AllDay,
		CanEdit:     row.OwnerID == viewerID,
	}
	it.DisplayTitle = displayTitle(viewerID, row.OwnerID, labels, row.Name)
	return it
}

// displayTitle prefixes the owner label when someone else's item shows up on
// the viewer's calendar.
func displayTitle(viewerID, ownerID string, labels map[string]string, base string) string {
	if ownerID == viewerID {
		return base
	}
	label := labels[ownerID]
	if label == "" {
		label = ownerID
	}
	return "[" + label + "] " + base
}

// ItemFromEntry converts a stored entry row into its canonical item as seen
// by viewerID, without any window filtering. Returns nil when the row has no
// start timestamp.
func ItemFromEntry(row store.EntryRow, viewerID string) *model.CalendarItem {
	return entryItem(row, viewerID, nil)
}

// ItemFromGroup is the CONTAINER-kind counterpart of ItemFromEntry.
func ItemFromGroup(row store.GroupRow, viewerID string) *model.CalendarItem {
	return groupItem(row, viewerID, nil)
}

// inMonthWindow applies the half-open month filter on the normalized span:
// an item starting exactly at monthEnd is out, an item whose span ends the
// day before monthStart is out, everything overlapping is in.
func inMonthWindow(it *model.CalendarItem, loc *time.Location, monthStart, monthEnd time.Time) bool {
	if !it.StartAt.Before(monthEnd) {
		return false
	}
	span := NormalizeSpan(it, loc)
	return !span.EndDay.Before(monthStart)
}
