// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE ADAPTER
// =============================================================================

// SQLiteAdapter is a transport.Storage backed by a single-table SQLite
// database. Suited to hosts that already ship a SQLite file and want
// snapshots alongside their other state.
type SQLiteAdapter struct {
	db *sql.DB
}

// sqliteSchema holds the key-value table.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS widget_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteAdapter opens (or creates) a SQLite database at path and
// ensures the key-value schema exists.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer: the adapter serializes through one connection to
	// avoid SQLITE_BUSY under concurrent SaveAsync writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteAdapter{db: db}, nil
}

// Get returns the stored value and whether the key exists.
func (a *SQLiteAdapter) Get(key string) (string, bool, error) {
	var value string
	err := a.db.QueryRow(`SELECT value FROM widget_kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores a value, replacing any existing one.
func (a *SQLiteAdapter) Set(key, value string) error {
	_, err := a.db.Exec(
		`INSERT INTO widget_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Delete removes a key. Deleting a missing key is not an error.
func (a *SQLiteAdapter) Delete(key string) error {
	_, err := a.db.Exec(`DELETE FROM widget_kv WHERE key = ?`, key)
	return err
}

// Close closes the underlying database.
func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}
