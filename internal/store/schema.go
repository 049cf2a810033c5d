package store

import (
	"database/sql"
	"fmt"
)

// migrations are run in order on every open; statements are idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS schedule_groups (
		id              TEXT PRIMARY KEY,
		owner_id        TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name            TEXT NOT NULL,
		single_schedule INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'PENDING'
		                CHECK(status IN ('PENDING','ACTIVE','DONE')),
		start_at        TEXT,
		end_at          TEXT,
		all_day         INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS schedules (
		id           TEXT PRIMARY KEY,
		group_id     TEXT NOT NULL REFERENCES schedule_groups(id) ON DELETE CASCADE,
		title        TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'PENDING'
		             CHECK(status IN ('PENDING','ACTIVE','DONE')),
		confidential INTEGER NOT NULL DEFAULT 0,
		start_at     TEXT,
		end_at       TEXT,
		all_day      INTEGER NOT NULL DEFAULT 0,
		rrule        TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS share_grants (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		grantee_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		scope      TEXT NOT NULL CHECK(scope IN ('calendar','todo')),
		approved   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		UNIQUE(owner_id, grantee_id, scope)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_schedules_group ON schedules(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_start ON schedules(start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_groups_owner ON schedule_groups(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_grants_grantee ON share_grants(grantee_id, scope)`,
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
