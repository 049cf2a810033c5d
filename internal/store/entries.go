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

// EntryRow is a discrete scheduled record joined with its owning group.
type EntryRow struct {
	ID        string
	GroupID   string
	GroupName string
	OwnerID   string

	Title        string
	Status       model.ItemStatus
	Confidential bool

	StartAt time.Time
	EndAt   time.Time
	AllDay  bool

	// RRule is an optional RFC 5545 recurrence rule; empty for one-shot
	// entries.
	RRule string

	CreatedAt time.Time
}

// SpanPatch is a partial update for an entry's or group's schedule fields.
// Nil fields are left untouched. A non-nil EndAt pointing at the zero time
// clears the end timestamp.
type SpanPatch struct {
	Title   *string
	Status  *model.ItemStatus
	StartAt *time.Time
	EndAt   *time.Time
	AllDay  *bool
}

func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

const entrySelect = `
	SELECT s.id, s.group_id, g.name, g.owner_id,
	       s.title, s.status, s.confidential,
	       s.start_at, s.end_at, s.all_day, s.rrule, s.created_at
	FROM schedules s
	JOIN schedule_groups g ON g.id = s.group_id`

// EntriesForOwners returns the entries of non-single-schedule groups owned by
// any account in ownerIDs that may touch the window [winStart, winEnd).
//
// The window filter here is deliberately loose: recurring entries are always
// returned for expansion, and the precise half-open span check (which depends
// on all-day end normalization) is applied by the aggregator.
func (s *Store) EntriesForOwners(ctx context.Context, winStart, winEnd time.Time, ownerIDs []string) ([]EntryRow, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := entrySelect + `
	WHERE g.single_schedule = 0
	  AND g.owner_id IN (` + inPlaceholders(len(ownerIDs)) + `)
	  AND s.start_at IS NOT NULL
	  AND (s.rrule != ''
	       OR (s.start_at < ? AND (s.end_at IS NULL OR s.end_at >= ?)))
	ORDER BY s.start_at, s.id`

	args := make([]any, 0, len(ownerIDs)+2)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	args = append(args, encodeTime(winEnd), encodeTime(winStart))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		row, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetEntry loads a single entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (EntryRow, error) {
	row := s.db.QueryRowContext(ctx, entrySelect+` WHERE s.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EntryRow{}, ErrNotFound
	}
	return e, err
}

// CreateEntry inserts a new entry into the given group and returns its id.
func (s *Store) CreateEntry(ctx context.Context, e EntryRow) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = model.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, group_id, title, status, confidential, start_at, end_at, all_day, rrule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Title, string(e.Status), boolInt(e.Confidential),
		encodeTime(e.StartAt), encodeTime(e.EndAt), boolInt(e.AllDay), e.RRule)
	if err != nil {
		return "", fmt.Errorf("inserting entry: %w", err)
	}
	return e.ID, nil
}

// UpdateEntrySpan applies a partial update to an entry and returns the
// updated row. This is the write path for ENTRY-kind mutations.
func (s *Store) UpdateEntrySpan(ctx context.Context, id string, patch SpanPatch) (EntryRow, error) {
	sets, args := patchClauses(patch)
	if len(sets) == 0 {
		return s.GetEntry(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return EntryRow{}, fmt.Errorf("updating entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return EntryRow{}, err
	}
	if n == 0 {
		return EntryRow{}, ErrNotFound
	}
	return s.GetEntry(ctx, id)
}

func patchClauses(patch SpanPatch) ([]string, []any) {
	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.StartAt != nil {
		sets = append(sets, "start_at = ?")
		args = append(args, encodeTime(*patch.StartAt))
	}
	if patch.EndAt != nil {
		sets = append(sets, "end_at = ?")
		args = append(args, encodeTime(*patch.EndAt))
	}
	if patch.AllDay != nil {
		sets = append(sets, "all_day = ?")
		args = append(args, boolInt(*patch.AllDay))
	}
	return sets, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (EntryRow, error) {
	var e EntryRow
	var status string
	var confidential, allDay int
	var startAt, endAt sql.NullString
	var createdAt string

	err := r.Scan(&e.ID, &e.GroupID, &e.GroupName, &e.OwnerID,
		&e.Title, &status, &confidential,
		&startAt, &endAt, &allDay, &e.RRule, &createdAt)
	if err != nil {
		return EntryRow{}, err
	}

	e.Status = model.ItemStatus(status)
	e.Confidential = confidential != 0
	e.AllDay = allDay != 0
	e.StartAt = decodeTime(startAt)
	e.EndAt = decodeTime(endAt)
	e.CreatedAt = decodeTime(sql.NullString{String: createdAt, Valid: true})
	return e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
