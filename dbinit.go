package main

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

func openDB(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", filename+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// dbInit brings the schema up to the current version.
func dbInit(db *sql.DB) error {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='gcalgate'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			return fmt.Errorf("failed to create db_version table: %w", err)
		}
		_, err = db.Exec(`INSERT OR IGNORE INTO db_version (name, version) VALUES ('gcalgate', 0)`)
		if err != nil {
			return fmt.Errorf("failed to initialize db_version table: %w", err)
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			doc TEXT NOT NULL)`)
		if err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}

		_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_email ON users (json_extract(doc, '$.email'))`)
		if err != nil {
			return fmt.Errorf("failed to create users email index: %w", err)
		}

		_, err = db.Exec(`UPDATE db_version SET version = 1 WHERE name = 'gcalgate'`)
		if err != nil {
			return fmt.Errorf("failed to update db_version table: %w", err)
		}
		log.Info().Int("version", 1).Msg("database schema initialized")
	}
	return nil
}
