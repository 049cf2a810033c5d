package calendar

import (
	"context"
	"time"

	appLog "sharecal/internal/log"
	"sharecal/internal/model"
	"sharecal/internal/share"
	"sharecal/internal/store"
)

// Writer is the per-kind write collaborator behind mutations. *store.Store
// satisfies it.
type Writer interface {
	UpdateEntrySpan(ctx context.Context, id string, patch store.SpanPatch) (store.EntryRow, error)
	UpdateGroupSpan(ctx context.Context, id string, patch store.SpanPatch) (store.GroupRow, error)
}

// VisibilityResolver yields the owner ids whose items a viewer may see.
// *share.Resolver satisfies it.
type VisibilityResolver interface {
	VisibleOwners(ctx context.Context, viewerID string, scope share.Scope) (owners []string, degraded bool)
}

// Engine wires the record source, write collaborator, and visibility
// resolver into the month-view build pipeline. It is stateless between
// invocations: every build derives everything from scratch.
type Engine struct {
	source   RecordSource
	writer   Writer
	resolver VisibilityResolver

	loc            *time.Location
	weekStart      time.Weekday
	maxVisibleBars int
}

// Options tune an Engine. Zero values fall back to sensible defaults.
type Options struct {
	Location       *time.Location
	WeekStart      time.Weekday
	MaxVisibleBars int
}

// NewEngine constructs an Engine over the given collaborators.
func NewEngine(source RecordSource, writer Writer, resolver VisibilityResolver, opts Options) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	maxBars := opts.MaxVisibleBars
	if maxBars <= 0 {
		maxBars = DefaultMaxVisibleBars
	}
	return &Engine{
		source:         source,
		writer:         writer,
		resolver:       resolver,
		loc:            loc,
		weekStart:      opts.WeekStart,
		maxVisibleBars: maxBars,
	}
}

// MaxVisibleBars exposes the configured lane budget for callers that resolve
// day details.
func (e *Engine) MaxVisibleBars() int {
	return e.maxVisibleBars
}

// MonthView is one fully derived month: the fixed grid, the canonical items
// in contract order, and the packed week rows. It is rebuilt wholesale on
// navigation and after every mutation.
type MonthView struct {
	Grid  Grid
	Items []*model.CalendarItem
	Weeks []WeekLayout

	Advisory Advisory
	BuiltAt  time.Time
}

// BuildMonthView runs the full pipeline for one viewer and target month:
// resolve visible owners, aggregate raw rows into canonical items, normalize
// spans, and pack each week row. Collaborator failures degrade the view and
// surface in the advisory; only a broken context aborts.
func (e *Engine) BuildMonthView(ctx context.Context, viewerID string, year int, month time.Month) (*MonthView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	owners, degraded := e.resolver.VisibleOwners(ctx, viewerID, share.ScopeCalendar)

	grid := BuildGrid(year, month, e.weekStart, e.loc)
	items, adv := aggregate(ctx, e.source, viewerID, grid.MonthStart, grid.MonthEnd, owners, e.loc)
	if degraded {
		adv.add("sharing unavailable; showing own items only")
	}

	spans := make([]model.Span, 0, len(items))
	for _, it := range items {
		spans = append(spans, NormalizeSpan(it, e.loc))
	}

	view := &MonthView{
		Grid:     grid,
		Items:    items,
		Weeks:    make([]WeekLayout, 0, GridRows),
		Advisory: adv,
		BuiltAt:  time.Now(),
	}
	for _, wk := range grid.Weeks {
		view.Weeks = append(view.Weeks, PackWeek(spans, wk, e.maxVisibleBars))
	}

	appLog.Debug("calendar: month view built",
		"viewer", viewerID,
		"year", year, "month", int(month),
		"owners", len(owners),
		"items", len(items),
		"degraded", view.Advisory.Degraded,
	)
	return view, nil
}

// ResolveDay expands one grid cell of a packed week with the engine's
// configured lane budget.
func (e *Engine) ResolveDay(week WeekLayout, col int) DayDetail {
	return ResolveDay(week, col, e.maxVisibleBars)
}
