// Package database provides SQLite persistence for room snapshots and their
// action logs.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the store behind room persistence. A single connection serializes
// every write; rooms only reach it off their hot path.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and brings its
// schema up to date. ":memory:" opens a private in-memory database.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string) string {
	pragmas := "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		return path + pragmas
	}
	return path + pragmas + "&_pragma=journal_mode(WAL)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SchemaVersion returns the id of the last applied migration.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies every migration newer than the schema version. Each runs
// in its own transaction together with the version bump.
func (db *DB) migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, m := range migrations {
		if m.id <= current {
			continue
		}
		if err := db.apply(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.id, m.name, err)
		}
		current = m.id
	}
	return nil
}

func (db *DB) apply(m migration) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.id)); err != nil {
		return err
	}
	return tx.Commit()
}
