package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS parking_slots (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		vehicle_affinity TEXT NOT NULL CHECK (vehicle_affinity IN ('car', 'bike')),
		capacity INTEGER NOT NULL CHECK (capacity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		slot_id BIGINT NOT NULL REFERENCES parking_slots(id),
		user_id TEXT NOT NULL,
		vehicle_type TEXT NOT NULL CHECK (vehicle_type IN ('car', 'bike')),
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled')),
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		cancelled_at TIMESTAMPTZ,
		reminded_at TIMESTAMPTZ,
		CHECK (start_time < end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_slot_active ON bookings (slot_id, start_time, end_time) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id, start_time)`,
}

var sqliteSchema = []string{
	"PRAGMA foreign_keys = ON;",
	`CREATE TABLE IF NOT EXISTS parking_slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		vehicle_affinity TEXT NOT NULL CHECK (vehicle_affinity IN ('car', 'bike')),
		capacity INTEGER NOT NULL CHECK (capacity > 0)
	);`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slot_id INTEGER NOT NULL REFERENCES parking_slots(id),
		user_id TEXT NOT NULL,
		vehicle_type TEXT NOT NULL CHECK (vehicle_type IN ('car', 'bike')),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled')),
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		cancelled_at TEXT,
		reminded_at TEXT
	);`,
	"CREATE INDEX IF NOT EXISTS idx_bookings_slot_time ON bookings(slot_id, status, start_time, end_time);",
	"CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, start_time);",
}

func initSchema(ctx context.Context, conn *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
