package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sharecal/internal/calendar"
	"sharecal/internal/config"
	"sharecal/internal/share"
	"sharecal/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"

	engine := calendar.NewEngine(st, st, share.NewResolver(st), calendar.Options{
		Location:       time.UTC,
		WeekStart:      time.Sunday,
		MaxVisibleBars: 3,
	})
	return NewServer(cfg, st, engine, time.UTC, true), st
}

func seedMonth(t *testing.T, st *store.Store) (groupID string, entryIDs []string) {
	t.Helper()
	ctx := context.Background()

	_, err := st.CreateAccount(ctx, "mina", "미나")
	require.NoError(t, err)

	groupID, err = st.CreateGroup(ctx, store.GroupRow{OwnerID: "mina", Name: "집안일"})
	require.NoError(t, err)

	// Five entries on the same day to overflow the 3-lane budget.
	for i := 0; i < 5; i++ {
		id, err := st.CreateEntry(ctx, store.EntryRow{
			GroupID: groupID,
			Title:   fmt.Sprintf("할일-%d", i),
			StartAt: time.Date(2024, 5, 7, 9+i, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		entryIDs = append(entryIDs, id)
	}
	return groupID, entryIDs
}

func TestHandleMonth_FullGrid(t *testing.T) {
	s, st := newTestServer(t)
	seedMonth(t, st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/month?viewer=mina&year=2024&month=5", nil)
	s.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp monthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, 5, resp.Month)
	assert.Len(t, resp.Cells, 42)
	assert.Len(t, resp.Weeks, 6)
	assert.False(t, resp.Degraded)

	// May 7 sits in week row 1; five stacked entries, three visible.
	wk := resp.Weeks[1]
	assert.Len(t, wk.Bars, 3)
	assert.Len(t, wk.Hidden, 2)
	assert.Equal(t, 5, wk.LaneCount)
}

func TestHandleMonth_MissingViewerRejected(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/month?year=2024&month=5", nil)
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDay_OverflowCount(t *testing.T) {
	s, st := newTestServer(t)
	seedMonth(t, st)

	// May 7 2024 is column 2 of week row 1 (week of May 5).
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/day?viewer=mina&year=2024&month=5&week=1&col=2", nil)
	s.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Len(t, resp.Items, 5)
	assert.Equal(t, 2, resp.HiddenCount)
}

func TestHandleItemPatch_ShiftMovesEntry(t *testing.T) {
	s, st := newTestServer(t)
	_, entryIDs := seedMonth(t, st)

	body, _ := json.Marshal(map[string]any{"viewer": "mina", "shift_days": 1})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/items/ENTRY/"+entryIDs[0], bytes.NewReader(body))
	s.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp itemDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC), resp.StartAt.UTC())

	// The persisted row moved too.
	row, err := st.GetEntry(context.Background(), entryIDs[0])
	require.NoError(t, err)
	assert.True(t, row.StartAt.Equal(resp.StartAt))
}

func TestHandleItemPatch_ForeignItemForbidden(t *testing.T) {
	s, st := newTestServer(t)
	_, entryIDs := seedMonth(t, st)

	_, err := st.CreateAccount(context.Background(), "june", "준")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"viewer": "june", "shift_days": 1})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/items/ENTRY/"+entryIDs[0], bytes.NewReader(body))
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleItemPatch_UnknownItem(t *testing.T) {
	s, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"viewer": "mina", "shift_days": 1})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/items/ENTRY/nope", bytes.NewReader(body))
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleICS_ServesFeed(t *testing.T) {
	s, st := newTestServer(t)
	seedMonth(t, st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/calendar.ics?viewer=mina&year=2024&month=5", nil)
	s.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestBasicAuth_HealthExemptAPIGuarded(t *testing.T) {
	s, _ := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "mina", PasswordHash: string(hash)}

	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?viewer=mina", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/month?viewer=mina&year=2024&month=5", nil)
	req.SetBasicAuth("mina", "secret")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMonthCache_InvalidatedAfterMutation(t *testing.T) {
	s, st := newTestServer(t)
	_, entryIDs := seedMonth(t, st)

	get := func() monthResponse {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/month?viewer=mina&year=2024&month=5", nil)
		s.mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp monthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	before := get()
	require.Len(t, before.Weeks[1].Bars, 3)

	// Shift one entry out of the crowded day; the next read must see it.
	body, _ := json.Marshal(map[string]any{"viewer": "mina", "shift_days": 7})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/items/ENTRY/"+entryIDs[4], bytes.NewReader(body))
	s.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	after := get()
	assert.Equal(t, 4, after.Weeks[1].LaneCount)
	assert.Len(t, after.Weeks[1].Hidden, 1, "one over-budget item remains on May 7")
}
