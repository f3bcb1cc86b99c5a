package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one connection pool
	// without serialization; a single connection keeps writes ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chatnslate schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id                 TEXT PRIMARY KEY,
			username           TEXT UNIQUE NOT NULL,
			email              TEXT UNIQUE,
			hashed_password    TEXT NOT NULL,
			display_name       TEXT NOT NULL,
			preferred_language TEXT NOT NULL DEFAULT 'en',
			avatar_url         TEXT,
			is_active          INTEGER NOT NULL DEFAULT 1,
			is_online          INTEGER NOT NULL DEFAULT 0,
			created_at         TIMESTAMP NOT NULL,
			updated_at         TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			created_by TEXT NOT NULL REFERENCES profiles(id),
			direct_key TEXT UNIQUE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			user_id         TEXT NOT NULL REFERENCES profiles(id),
			joined_at       TIMESTAMP NOT NULL,
			PRIMARY KEY (conversation_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id                TEXT PRIMARY KEY,
			conversation_id   TEXT NOT NULL REFERENCES conversations(id),
			sender_id         TEXT NOT NULL REFERENCES profiles(id),
			original_text     TEXT NOT NULL,
			original_language TEXT NOT NULL DEFAULT 'en',
			translated_texts  TEXT NOT NULL DEFAULT '{}',
			created_at        TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS contacts (
			user_id         TEXT NOT NULL REFERENCES profiles(id),
			contact_user_id TEXT NOT NULL REFERENCES profiles(id),
			created_at      TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, contact_user_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// directKey canonicalizes a participant pair for the direct_key unique column.
func directKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
