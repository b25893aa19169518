package checkin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Attendance records one participant's presence at one session.
type Attendance struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	SessionID     string     `json:"session_id"`
	CheckInTime   time.Time  `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty"`
	Status        Status     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Repository persists attendance rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a (participant, session) row is already present.
func (r *Repository) Exists(ctx context.Context, participantID, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE participant_id = $1 AND session_id = $2)
	`, participantID, sessionID).Scan(&exists)
	return exists, err
}

// InsertUnique writes a row unless one already exists for the pair. The
// second return value is false when the composite unique key absorbed a
// concurrent duplicate, so callers can treat the race like an ordinary
// repeat check-in.
func (r *Repository) InsertUnique(ctx context.Context, a Attendance) (Attendance, bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, participant_id, session_id, check_in_time, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (participant_id, session_id) DO NOTHING
		RETURNING created_at
	`, a.ID, a.ParticipantID, a.SessionID, a.CheckInTime, a.Status, a.Notes)
	if err := row.Scan(&a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendance{}, false, nil
		}
		return Attendance{}, false, err
	}
	return a, true, nil
}

// SessionIDsFor returns the distinct sessions a participant has a row for.
func (r *Repository) SessionIDsFor(ctx context.Context, participantID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM attendance WHERE participant_id = $1
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByParticipant returns a participant's attendance rows, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, participantID string) ([]Attendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, participant_id, session_id, check_in_time, check_out_time, status, notes, created_at
		FROM attendance WHERE participant_id = $1
		ORDER BY check_in_time DESC
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.SessionID, &a.CheckInTime, &a.CheckOutTime, &a.Status, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// CountBySession counts rows for one session.
func (r *Repository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance WHERE session_id = $1
	`, sessionID).Scan(&n)
	return n, err
}
