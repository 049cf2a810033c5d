package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sharecal/internal/calendar"
	"sharecal/internal/ics"
	appLog "sharecal/internal/log"
	"sharecal/internal/model"
	"sharecal/internal/store"
)

// itemDTO is a JSON-friendly view of a canonical calendar item.
type itemDTO struct {
	Kind         string     `json:"kind"`
	ID           string     `json:"id"`
	ContainerID  string     `json:"container_id"`
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	DisplayTitle string     `json:"display_title"`
	Status       string     `json:"status"`
	Confidential bool       `json:"confidential"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	AllDay       bool       `json:"all_day"`
	CanEdit      bool       `json:"can_edit"`
}

// barDTO is one lane assignment in a week row.
type barDTO struct {
	Lane        int     `json:"lane"`
	ColStart    int     `json:"col_start"`
	ColEnd      int     `json:"col_end"`
	IsSpanStart bool    `json:"is_span_start"`
	IsSpanEnd   bool    `json:"is_span_end"`
	Item        itemDTO `json:"item"`
}

// weekDTO is one packed grid row.
type weekDTO struct {
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Bars      []barDTO  `json:"bars"`
	Hidden    []barDTO  `json:"hidden,omitempty"`
	LaneCount int       `json:"lane_count"`
}

// cellDTO is one day slot of the 6x7 grid.
type cellDTO struct {
	Day     time.Time `json:"day"`
	InMonth bool      `json:"in_month"`
}

// monthResponse is the JSON response shape for /api/month.
type monthResponse struct {
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	MonthStart      time.Time `json:"month_start"`
	MonthEnd        time.Time `json:"month_end"`
	Cells           []cellDTO `json:"cells"`
	Weeks           []weekDTO `json:"weeks"`
	MaxVisibleBars  int       `json:"max_visible_bars"`
	Degraded        bool      `json:"degraded"`
	DegradedReasons []string  `json:"degraded_reasons,omitempty"`
	DisplayTimeZone string    `json:"display_timezone"`
	WeekStartDay    string    `json:"week_start"`
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Day         time.Time `json:"day"`
	Items       []itemDTO `json:"items"`
	HiddenCount int       `json:"hidden_count"`
}

func toItemDTO(it *model.CalendarItem) itemDTO {
	dto := itemDTO{
		Kind:         string(it.Kind),
		ID:           it.ID,
		ContainerID:  it.ContainerID,
		OwnerID:      it.OwnerID,
		Title:        it.Title,
		DisplayTitle: it.DisplayTitle,
		Status:       string(it.Status),
		Confidential: it.IsConfidential,
		StartAt:      it.StartAt,
		AllDay:       it.AllDay,
		CanEdit:      it.CanEdit,
	}
	if it.HasEnd() {
		end := it.EndAt
		dto.EndAt = &end
	}
	return dto
}

func toBarDTO(la model.LaneAssignment) barDTO {
	return barDTO{
		Lane:        la.Lane,
		ColStart:    la.Segment.ColStart,
		ColEnd:      la.Segment.ColEnd,
		IsSpanStart: la.Segment.IsSpanStart,
		IsSpanEnd:   la.Segment.IsSpanEnd,
		Item:        toItemDTO(la.Segment.Item),
	}
}

// monthParams reads viewer/year/month query parameters, defaulting to the
// current month in the display timezone.
func (s *Server) monthParams(r *http.Request) (monthKey, bool) {
	q := r.URL.Query()
	viewer := q.Get("viewer")
	if viewer == "" {
		return monthKey{}, false
	}

	now := time.Now().In(s.loc)
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		return monthKey{}, false
	}
	return monthKey{Viewer: viewer, Year: year, Month: time.Month(month)}, true
}

// handleMonth returns the packed month view for a viewer.
//
// GET /api/month?viewer=mina&year=2024&month=5
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	key, ok := s.monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "viewer and a valid month are required")
		return
	}

	view, err := s.cachedMonthView(r.Context(), key)
	if err != nil {
		appLog.Error("api month: build failed", err, "viewer", key.Viewer)
		writeError(w, http.StatusInternalServerError, "failed to build month view")
		return
	}

	writeJSON(w, http.StatusOK, s.toMonthResponse(view))
}

func (s *Server) toMonthResponse(view *calendar.MonthView) monthResponse {
	maxBars := s.engine.MaxVisibleBars()
	resp := monthResponse{
		Year:            view.Grid.Year,
		Month:           int(view.Grid.Month),
		MonthStart:      view.Grid.MonthStart,
		MonthEnd:        view.Grid.MonthEnd,
		Cells:           make([]cellDTO, 0, len(view.Grid.Cells)),
		Weeks:           make([]weekDTO, 0, len(view.Weeks)),
		MaxVisibleBars:  maxBars,
		Degraded:        view.Advisory.Degraded,
		DegradedReasons: view.Advisory.Reasons,
		DisplayTimeZone: s.loc.String(),
		WeekStartDay:    s.cfg.WeekStart,
	}
	for _, c := range view.Grid.Cells {
		resp.Cells = append(resp.Cells, cellDTO{Day: c.Day, InMonth: c.InMonth})
	}
	for _, wk := range view.Weeks {
		wd := weekDTO{
			WeekStart: wk.WeekStart,
			WeekEnd:   wk.WeekEnd,
			Bars:      make([]barDTO, 0, len(wk.Bars)),
			LaneCount: wk.LaneCount,
		}
		for _, la := range wk.Bars {
			wd.Bars = append(wd.Bars, toBarDTO(la))
		}
		for _, la := range wk.Assignments {
			if la.Lane >= maxBars {
				wd.Hidden = append(wd.Hidden, toBarDTO(la))
			}
		}
		resp.Weeks = append(resp.Weeks, wd)
	}
	return resp
}

// handleDay expands a single grid cell: every item touching that day plus
// the count hidden beyond the visible-lane budget.
//
// GET /api/day?viewer=mina&year=2024&month=5&week=2&col=4
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	key, ok := s.monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "viewer and a valid month are required")
		return
	}

	q := r.URL.Query()
	week := parseIntDefault(q.Get("week"), -1)
	col := parseIntDefault(q.Get("col"), -1)
	if week < 0 || week >= calendar.GridRows || col < 0 || col >= calendar.GridCols {
		writeError(w, http.StatusBadRequest, "week and col must address a grid cell")
		return
	}

	view, err := s.cachedMonthView(r.Context(), key)
	if err != nil {
		appLog.Error("api day: build failed", err, "viewer", key.Viewer)
		writeError(w, http.StatusInternalServerError, "failed to build month view")
		return
	}

	detail := s.engine.ResolveDay(view.Weeks[week], col)
	resp := dayResponse{
		Day:         view.Grid.Cells[week*calendar.GridCols+col].Day,
		Items:       make([]itemDTO, 0, len(detail.Items)),
		HiddenCount: detail.HiddenCount,
	}
	for _, it := range detail.Items {
		resp.Items = append(resp.Items, toItemDTO(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// itemPatchRequest mutates one item: either a day shift or a direct field
// edit. ShiftDays takes precedence when present.
type itemPatchRequest struct {
	Viewer    string `json:"viewer"`
	ShiftDays *int   `json:"shift_days,omitempty"`

	Title   *string    `json:"title,omitempty"`
	Status  *string    `json:"status,omitempty"`
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`
	AllDay  *bool      `json:"all_day,omitempty"`
}

// handleItemPatch applies a shift or edit to one item through the engine's
// kind-dispatched write path, then drops the month cache so the next read
// re-aggregates.
//
// PATCH /api/items/{kind}/{id}
func (s *Server) handleItemPatch(w http.ResponseWriter, r *http.Request) {
	kind := model.ItemKind(r.PathValue("kind"))
	id := r.PathValue("id")
	if kind != model.KindEntry && kind != model.KindContainer {
		writeError(w, http.StatusBadRequest, "kind must be ENTRY or CONTAINER")
		return
	}

	var req itemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Viewer == "" {
		writeError(w, http.StatusBadRequest, "viewer is required")
		return
	}

	item, err := s.loadItem(r, kind, id, req.Viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		appLog.Error("api item patch: load failed", err, "kind", string(kind), "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}

	var updated *model.CalendarItem
	if req.ShiftDays != nil {
		updated, err = s.engine.ShiftItem(r.Context(), item, *req.ShiftDays)
	} else {
		patch := store.SpanPatch{
			Title:   req.Title,
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
			AllDay:  req.AllDay,
		}
		if req.Status != nil {
			st := model.ItemStatus(*req.Status)
			patch.Status = &st
		}
		updated, err = s.engine.UpdateItem(r.Context(), item, patch)
	}
	if err != nil {
		if f, ok := calendar.AsFailure(err); ok {
			writeJSON(w, failureStatus(f), map[string]string{"error": f.Message, "code": f.Code})
			return
		}
		appLog.Error("api item patch: write failed", err, "kind", string(kind), "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	s.invalidateMonthCache()
	writeJSON(w, http.StatusOK, toItemDTO(updated))
}

func failureStatus(f *calendar.Failure) int {
	switch f.Code {
	case calendar.FailNotFound:
		return http.StatusNotFound
	case calendar.FailPermission:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

// loadItem materializes the canonical item a mutation targets.
func (s *Server) loadItem(r *http.Request, kind model.ItemKind, id, viewer string) (*model.CalendarItem, error) {
	ctx := r.Context()
	switch kind {
	case model.KindEntry:
		row, err := s.st.GetEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		it := calendar.ItemFromEntry(row, viewer)
		if it == nil {
			// No start timestamp: still a real item for editing purposes.
			it = &model.CalendarItem{
				Kind: model.KindEntry, ID: row.ID, ContainerID: row.GroupID,
				OwnerID: row.OwnerID, Title: row.Title, Status: row.Status,
				CanEdit: row.OwnerID == viewer,
			}
		}
		return it, nil
	default:
		row, err := s.st.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		it := calendar.ItemFromGroup(row, viewer)
		if it == nil {
			it = &model.CalendarItem{
				Kind: model.KindContainer, ID: row.ID, ContainerID: row.ID,
				OwnerID: row.OwnerID, Title: row.Name, Status: row.Status,
				CanEdit: row.OwnerID == viewer,
			}
		}
		return it, nil
	}
}

// handleICS serves the viewer's current month as an iCalendar feed.
//
// GET /calendar.ics?viewer=mina&year=2024&month=5
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	key, ok := s.monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "viewer and a valid month are required")
		return
	}

	view, err := s.cachedMonthView(r.Context(), key)
	if err != nil {
		appLog.Error("calendar.ics: build failed", err, "viewer", key.Viewer)
		writeError(w, http.StatusInternalServerError, "failed to build calendar feed")
		return
	}

	payload, err := ics.Export("sharecal "+key.Viewer, view.Items, s.loc)
	if err != nil {
		appLog.Error("calendar.ics: export failed", err, "viewer", key.Viewer)
		writeError(w, http.StatusInternalServerError, "failed to serialize calendar feed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
