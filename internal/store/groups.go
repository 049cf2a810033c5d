package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sharecal/internal/model"
)

// GroupRow is a schedule group. When SingleSchedule is set the group carries
// its own span and surfaces in the calendar as a CONTAINER item instead of
// hosting entries.
type GroupRow struct {
	ID      string
	OwnerID string
	Name    string

	SingleSchedule bool
	Status         model.ItemStatus

	StartAt time.Time
	EndAt   time.Time
	AllDay  bool
}

const groupSelect = `
	SELECT id, owner_id, name, single_schedule, status, start_at, end_at, all_day
	FROM schedule_groups`

// SingleScheduleGroups returns single-schedule groups owned by any account in
// ownerIDs that may touch the window [winStart, winEnd). Same loose-window
// contract as EntriesForOwners.
func (s *Store) SingleScheduleGroups(ctx context.Context, winStart, winEnd time.Time, ownerIDs []string) ([]GroupRow, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := groupSelect + `
	WHERE single_schedule = 1
	  AND owner_id IN (` + inPlaceholders(len(ownerIDs)) + `)
	  AND start_at IS NOT NULL
	  AND start_at < ? AND (end_at IS NULL OR end_at >= ?)
	ORDER BY start_at, id`

	args := make([]any, 0, len(ownerIDs)+2)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	args = append(args, encodeTime(winEnd), encodeTime(winStart))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying single-schedule groups: %w", err)
	}
	defer rows.Close()

	var out []GroupRow
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGroup loads a single group by id.
func (s *Store) GetGroup(ctx context.Context, id string) (GroupRow, error) {
	row := s.db.QueryRowContext(ctx, groupSelect+` WHERE id = ?`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GroupRow{}, ErrNotFound
	}
	return g, err
}

// CreateGroup inserts a new schedule group and returns its id.
func (s *Store) CreateGroup(ctx context.Context, g GroupRow) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = model.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_groups (id, owner_id, name, single_schedule, status, start_at, end_at, all_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, boolInt(g.SingleSchedule), string(g.Status),
		encodeTime(g.StartAt), encodeTime(g.EndAt), boolInt(g.AllDay))
	if err != nil {
		return "", fmt.Errorf("inserting group: %w", err)
	}
	return g.ID, nil
}

// UpdateGroupSpan applies a partial update to a single-schedule group and
// returns the updated row. This is the write path for CONTAINER-kind
// mutations.
func (s *Store) UpdateGroupSpan(ctx context.Context, id string, patch SpanPatch) (GroupRow, error) {
	sets, args := patchClauses(patch)
	// CONTAINER items use the group name as their title.
	for i, c := range sets {
		if c == "title = ?" {
			sets[i] = "name = ?"
		}
	}
	if len(sets) == 0 {
		return s.GetGroup(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_groups SET `+strings.Join(sets, ", ")+` WHERE id = ? AND single_schedule = 1`, args...)
	if err != nil {
		return GroupRow{}, fmt.Errorf("updating group %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return GroupRow{}, err
	}
	if n == 0 {
		return GroupRow{}, ErrNotFound
	}
	return s.GetGroup(ctx, id)
}

func scanGroup(r rowScanner) (GroupRow, error) {
	var g GroupRow
	var status string
	var single, allDay int
	var startAt, endAt sql.NullString

	err := r.Scan(&g.ID, &g.OwnerID, &g.Name, &single, &status, &startAt, &endAt, &allDay)
	if err != nil {
		return GroupRow{}, err
	}

	g.SingleSchedule = single != 0
	g.Status = model.ItemStatus(status)
	g.AllDay = allDay != 0
	g.StartAt = decodeTime(startAt)
	g.EndAt = decodeTime(endAt)
	return g, nil
}
