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

// Migrate runs idempotent DDL migrations on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL    PRIMARY KEY,
			username        VARCHAR(50)  UNIQUE NOT NULL,
			display_name    VARCHAR(100) NOT NULL,
			email           VARCHAR(100) UNIQUE,
			hashed_password VARCHAR(255) NOT NULL,
			is_active       BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS listings (
			id         BIGSERIAL    PRIMARY KEY,
			owner_id   BIGINT       NOT NULL REFERENCES users(id),
			title      VARCHAR(200) NOT NULL,
			price      BIGINT       NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id          BIGSERIAL   PRIMARY KEY,
			content     TEXT        NOT NULL,
			sender_id   BIGINT      NOT NULL REFERENCES users(id),
			receiver_id BIGINT      NOT NULL REFERENCES users(id),
			listing_id  BIGINT      REFERENCES listings(id),
			is_read     BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         BIGSERIAL    PRIMARY KEY,
			user_id    BIGINT       NOT NULL REFERENCES users(id),
			title      VARCHAR(200) NOT NULL,
			message    TEXT         NOT NULL,
			type       VARCHAR(20)  NOT NULL,
			related_id BIGINT,
			is_read    BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ  NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver_unread ON messages(receiver_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, is_read)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
