package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS restaurants (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	address         TEXT NOT NULL DEFAULT '',
	lat             REAL,
	lon             REAL,
	keywords        TEXT,
	review_count    INTEGER NOT NULL DEFAULT 0,
	total_score     REAL NOT NULL DEFAULT 0,
	naver_score     REAL NOT NULL DEFAULT 0,
	sentiment_score REAL NOT NULL DEFAULT 0,
	preview         TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants (name);
CREATE INDEX IF NOT EXISTS idx_restaurants_review_count ON restaurants (review_count);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS restaurants (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	address         TEXT NOT NULL DEFAULT '',
	lat             DOUBLE PRECISION,
	lon             DOUBLE PRECISION,
	keywords        TEXT,
	review_count    INTEGER NOT NULL DEFAULT 0,
	total_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	naver_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	preview         TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants (name);
CREATE INDEX IF NOT EXISTS idx_restaurants_review_count ON restaurants (review_count);
`

// Migrate creates the restaurants schema for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case "sqlite":
		schema = schemaSQLite
	case "postgres":
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
