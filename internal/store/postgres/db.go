package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chatnslate schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Profiles: auth identity + chat profile in one row
		`CREATE TABLE IF NOT EXISTS profiles (
			id                 TEXT         PRIMARY KEY,
			username           VARCHAR(50)  UNIQUE NOT NULL,
			email              VARCHAR(100) UNIQUE,
			hashed_password    VARCHAR(255) NOT NULL,
			display_name       VARCHAR(100) NOT NULL,
			preferred_language VARCHAR(8)   NOT NULL DEFAULT 'en',
			avatar_url         TEXT,
			is_active          BOOLEAN      NOT NULL DEFAULT TRUE,
			is_online          BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		// Conversations. direct_key is the canonicalized participant pair;
		// its uniqueness closes the duplicate-conversation race.
		`CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT        PRIMARY KEY,
			created_by TEXT        NOT NULL REFERENCES profiles(id),
			direct_key TEXT        UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id TEXT        NOT NULL REFERENCES conversations(id),
			user_id         TEXT        NOT NULL REFERENCES profiles(id),
			joined_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (conversation_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id                TEXT        PRIMARY KEY,
			conversation_id   TEXT        NOT NULL REFERENCES conversations(id),
			sender_id         TEXT        NOT NULL REFERENCES profiles(id),
			original_text     TEXT        NOT NULL,
			original_language VARCHAR(8)  NOT NULL DEFAULT 'en',
			translated_texts  JSONB       NOT NULL DEFAULT '{}'::jsonb,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS contacts (
			user_id         TEXT        NOT NULL REFERENCES profiles(id),
			contact_user_id TEXT        NOT NULL REFERENCES profiles(id),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, contact_user_id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_display_name ON profiles(display_name)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// DirectKey canonicalizes a participant pair so conversation uniqueness does
// not depend on argument order.
func DirectKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
