package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema es idempotente; se aplica en cada arranque.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		notify_email    BOOLEAN NOT NULL DEFAULT TRUE,
		notify_sms      BOOLEAN NOT NULL DEFAULT FALSE,
		notify_push     BOOLEAN NOT NULL DEFAULT TRUE,
		notify_calendar BOOLEAN NOT NULL DEFAULT FALSE,
		age               INTEGER,
		weight_kg         DOUBLE PRECISION,
		height_cm         DOUBLE PRECISION,
		phone_number      TEXT NOT NULL DEFAULT '',
		conditions        JSONB NOT NULL DEFAULT '[]',
		allergies         JSONB NOT NULL DEFAULT '[]',
		emergency_contact JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medicines (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		symptoms    JSONB NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		medicine_id   TEXT NOT NULL,
		medicine_name TEXT NOT NULL DEFAULT '',
		dosage        TEXT NOT NULL DEFAULT '',
		frequency     TEXT NOT NULL,
		times         JSONB NOT NULL DEFAULT '[]',
		start_date    DATE NOT NULL,
		end_date      DATE,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_taken    TIMESTAMPTZ,
		next_dose     TIMESTAMPTZ,
		dismissed     JSONB NOT NULL DEFAULT '[]',
		notes         TEXT NOT NULL DEFAULT '',
		source        TEXT NOT NULL DEFAULT 'manual',
		raw_text      TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medications_user_id_idx ON medications (user_id)`,
	`CREATE INDEX IF NOT EXISTS medicines_lower_name_idx ON medicines (lower(name))`,

	// columnas agregadas después de la primera versión del esquema
	`ALTER TABLE users
		ADD COLUMN IF NOT EXISTS age               INTEGER,
		ADD COLUMN IF NOT EXISTS weight_kg         DOUBLE PRECISION,
		ADD COLUMN IF NOT EXISTS height_cm         DOUBLE PRECISION,
		ADD COLUMN IF NOT EXISTS phone_number      TEXT NOT NULL DEFAULT '',
		ADD COLUMN IF NOT EXISTS conditions        JSONB NOT NULL DEFAULT '[]',
		ADD COLUMN IF NOT EXISTS allergies         JSONB NOT NULL DEFAULT '[]',
		ADD COLUMN IF NOT EXISTS emergency_contact JSONB NOT NULL DEFAULT '{}'`,
	`ALTER TABLE medications
		ADD COLUMN IF NOT EXISTS source   TEXT NOT NULL DEFAULT 'manual',
		ADD COLUMN IF NOT EXISTS raw_text TEXT NOT NULL DEFAULT ''`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
