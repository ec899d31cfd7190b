package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables. Safe to call on every start.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    phone_number VARCHAR(20) NOT NULL UNIQUE,
    full_name VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255),
    valid_vote BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_valid_vote ON users(valid_vote);

CREATE TABLE IF NOT EXISTS sms_verifications (
    id UUID PRIMARY KEY,
    phone_number VARCHAR(20) NOT NULL UNIQUE
        CONSTRAINT chk_e164 CHECK (phone_number ~ '^\+[1-9][0-9]{1,14}$'),
    code CHAR(6) NOT NULL
        CONSTRAINT chk_code_length CHECK (char_length(code) = 6),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS ix_sms_not_verified ON sms_verifications(is_verified, expires_at);
CREATE INDEX IF NOT EXISTS ix_sms_user_id ON sms_verifications(user_id);

CREATE TABLE IF NOT EXISTS votings (
    id UUID PRIMARY KEY,
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL,
    real_quantity INTEGER NOT NULL DEFAULT 0,
    fake_quantity INTEGER NOT NULL DEFAULT 0,
    show_real BOOLEAN NOT NULL DEFAULT TRUE,
    status TEXT NOT NULL DEFAULT 'collecting'
        CHECK (status IN ('collecting', 'reviewing', 'accepted', 'rejected')),
    is_current BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- at most one current campaign
CREATE UNIQUE INDEX IF NOT EXISTS ux_votings_current ON votings(is_current) WHERE is_current;

CREATE TABLE IF NOT EXISTS admins (
    id UUID PRIMARY KEY,
    email VARCHAR(128) NOT NULL UNIQUE,
    password_hash VARCHAR(1024) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
