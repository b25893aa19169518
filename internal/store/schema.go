package store

import "context"

// schema is applied on startup; every statement is idempotent.
//
// The composite unique key on attendance makes the one-row-per-
// participant-per-session rule hold even when two check-ins race past the
// application-level existence check.
const schema = `
CREATE TABLE IF NOT EXISTS kajian_sessions (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	session_date DATE NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	max_participants INT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS participants (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	qr_token TEXT NOT NULL UNIQUE,
	is_blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
	blacklist_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'participant')),
	participant_id UUID REFERENCES participants(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance (
	id UUID PRIMARY KEY,
	participant_id UUID NOT NULL REFERENCES participants(id),
	session_id UUID NOT NULL REFERENCES kajian_sessions(id),
	check_in_time TIMESTAMPTZ NOT NULL,
	check_out_time TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('present', 'late')),
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (participant_id, session_id)
);

CREATE TABLE IF NOT EXISTS participant_invitations (
	id UUID PRIMARY KEY,
	token TEXT NOT NULL,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	used BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Bootstrap creates the tables when they do not exist yet.
func (d *DB) Bootstrap(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
