// Package db is the local SQLite cache for market data fetched from ESI.
package db

import (
	"database/sql"
	"fmt"

	"eve-tradeworks/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite cache at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", "Opened %s", path)
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS market_history (
				region_id   INTEGER NOT NULL,
				type_id     INTEGER NOT NULL,
				date        TEXT NOT NULL,
				average     REAL,
				highest     REAL,
				lowest      REAL,
				volume      INTEGER,
				order_count INTEGER,
				PRIMARY KEY (region_id, type_id, date)
			);

			CREATE TABLE IF NOT EXISTS market_history_meta (
				region_id  INTEGER NOT NULL,
				type_id    INTEGER NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (region_id, type_id)
			);

			CREATE TABLE IF NOT EXISTS type_cache (
				type_id         INTEGER PRIMARY KEY,
				name            TEXT NOT NULL,
				group_id        INTEGER,
				market_group_id INTEGER,
				volume          REAL,
				packaged_volume REAL,
				portion_size    INTEGER,
				published       INTEGER,
				updated_at      TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS station_cache (
				name_key    TEXT PRIMARY KEY,
				location_id INTEGER NOT NULL,
				system_id   INTEGER NOT NULL,
				region_id   INTEGER NOT NULL,
				citadel     INTEGER NOT NULL,
				name        TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS auth_session (
				id              INTEGER PRIMARY KEY,
				character_id    INTEGER NOT NULL,
				character_name  TEXT NOT NULL,
				access_token    TEXT NOT NULL,
				refresh_token   TEXT NOT NULL,
				expires_at      INTEGER NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB for use by other packages (e.g. auth store).
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
