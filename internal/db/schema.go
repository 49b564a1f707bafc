package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_entries (
    id              UUID PRIMARY KEY,
    teacher_id      TEXT NOT NULL,
    teacher_name    TEXT NOT NULL,
    building_number TEXT NOT NULL,
    room_number     TEXT NOT NULL,
    start_time      TIMESTAMPTZ NOT NULL,
    end_time        TIMESTAMPTZ,
    num_students    INT NOT NULL DEFAULT 1,
    purpose         TEXT NOT NULL DEFAULT '',
    equipment       TEXT[] NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL,
    CHECK (end_time IS NULL OR end_time >= start_time)
);

-- At most one open session per (teacher, building, room).
CREATE UNIQUE INDEX IF NOT EXISTS usage_entries_open_session
    ON usage_entries (teacher_id, building_number, room_number)
    WHERE end_time IS NULL;

CREATE TABLE IF NOT EXISTS rooms (
    id         TEXT PRIMARY KEY,
    number     TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    capacity   INT NOT NULL DEFAULT 20,
    equipment  TEXT[] NOT NULL DEFAULT '{}',
    qr_code    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS teacher_accounts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    department TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables on startup so a fresh database is usable
// without a separate migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
