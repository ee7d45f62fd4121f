package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(320) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email);`,
	`CREATE TABLE IF NOT EXISTS payment_records (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		session_id UUID NOT NULL,
		option_id VARCHAR(64) NOT NULL,
		method VARCHAR(32) NOT NULL,
		provider VARCHAR(32) NOT NULL DEFAULT '',
		amount NUMERIC(18,2) NOT NULL,
		currency VARCHAR(8) NOT NULL,
		description TEXT NOT NULL,
		transaction_id VARCHAR(128),
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'SUCCEEDED', 'FAILED')),
		error_kind VARCHAR(32),
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_records_user_id ON payment_records (user_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_records_unlocked ON payment_records (user_id, option_id) WHERE status = 'SUCCEEDED';`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
