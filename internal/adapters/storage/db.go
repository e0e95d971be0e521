package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// migrations are applied in order; migration i brings the schema to version i+1.
// Append new steps; never edit a released one.
var migrations = []func(tx *sql.Tx) error{
	migrateBaseline,
	migrateRowTimestamps,
}

// LatestSchemaVersion is the version reached after every migration.
func LatestSchemaVersion() int {
	return len(migrations)
}

// InitDB opens the connection for the sheet store and brings the schema up to date.
// PRE: db is a valid database connection
// POST: WAL mode and foreign keys enabled, schema at LatestSchemaVersion
func InitDB(db *sql.DB, path string) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return MigrateDB(db, path)
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
// INVARIANT: running it twice is a no-op
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for v := current; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := migrations[v](tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("schema_migrated", "db", path, "version", v+1)
	}
	return nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// migrateBaseline creates the sheet table. Columns mirror the spreadsheet
// header; every cell is text, as in the sheet itself.
func migrateBaseline(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS sheet_row (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL DEFAULT '',
		prenom TEXT NOT NULL DEFAULT '',
		sexe TEXT NOT NULL DEFAULT '',
		classe TEXT NOT NULL DEFAULT '',
		ecriture TEXT NOT NULL DEFAULT '',
		lecture TEXT NOT NULL DEFAULT '',
		vocabulaire TEXT NOT NULL DEFAULT '',
		grammaire TEXT NOT NULL DEFAULT '',
		conjugaison TEXT NOT NULL DEFAULT '',
		orthographe TEXT NOT NULL DEFAULT '',
		comportement TEXT NOT NULL DEFAULT '',
		comportement_details TEXT NOT NULL DEFAULT '',
		comportement_commentaire TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_sheet_row_classe ON sheet_row(classe);
	`)
	return err
}

// migrateRowTimestamps records when a row was last written.
func migrateRowTimestamps(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE sheet_row ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`)
	return err
}
