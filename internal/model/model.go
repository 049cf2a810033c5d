package model

import "time"

// ItemKind discriminates the two source record types that feed the calendar.
// The kind is fixed at creation time; it decides which write path a mutation
// takes.
type ItemKind string

const (
	// KindEntry is a discrete scheduled record belonging to a group.
	KindEntry ItemKind = "ENTRY"
	// KindContainer is a group record that itself carries a single span.
	KindContainer ItemKind = "CONTAINER"
)

// ItemStatus is the lifecycle state of a scheduled item.
type ItemStatus string

const (
	StatusPending ItemStatus = "PENDING"
	StatusActive  ItemStatus = "ACTIVE"
	StatusDone    ItemStatus = "DONE"
)

// CalendarItem is the canonical shape every scheduled record is aggregated
// into, regardless of its source kind. Layout logic never looks past this
// type; kind-specific fields stay in the store rows.
type CalendarItem struct {
	Kind        ItemKind
	ID          string
	ContainerID string

	// OwnerID is the account owning the containing group, which is not
	// necessarily the viewer.
	OwnerID string

	Title        string
	DisplayTitle string

	Status         ItemStatus
	IsConfidential bool

	// StartAt is required for an item to participate in layout; rows without
	// it are filtered out before aggregation.
	StartAt time.Time
	// EndAt is zero when the item has no explicit end.
	EndAt  time.Time
	AllDay bool

	// CanEdit is viewer-relative.
	CanEdit bool
}

// HasEnd reports whether the item carries an explicit end timestamp.
func (it *CalendarItem) HasEnd() bool {
	return !it.EndAt.IsZero()
}

// Key identifies an item across derivation passes. Two segments of the same
// item share a key; items of different kinds never collide.
type Key struct {
	Kind ItemKind
	ID   string
}

// ItemKey returns the (kind, id) identity of an item.
func (it *CalendarItem) ItemKey() Key {
	return Key{Kind: it.Kind, ID: it.ID}
}

// Span is the inclusive day range an item occupies, both endpoints truncated
// to local calendar days. Spans are derived on every aggregation pass and
// never persisted.
type Span struct {
	Item     *CalendarItem
	StartDay time.Time
	EndDay   time.Time
}

// WeekSegment is a span clipped to one 7-day grid row. ColStart/ColEnd are
// column indices in [0,6]. IsSpanStart/IsSpanEnd indicate whether the
// segment's edges coincide with the full span's true edges; a false value
// means the item continues into a neighboring week.
type WeekSegment struct {
	Item        *CalendarItem
	ColStart    int
	ColEnd      int
	IsSpanStart bool
	IsSpanEnd   bool
}

// LaneAssignment places one week segment into a vertical lane of its row.
// Lanes are a per-row rendering resource and are never shared across weeks.
type LaneAssignment struct {
	Segment WeekSegment
	Lane    int
}
