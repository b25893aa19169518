package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one scheduled kajian gathering.
type Session struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Location        string    `json:"location,omitempty"`
	MaxParticipants *int      `json:"max_participants,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, title, description, session_date, start_time, end_time, location, max_participants, is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	var date time.Time
	err := row.Scan(&s.ID, &s.Title, &s.Description, &date, &s.StartTime, &s.EndTime, &s.Location, &s.MaxParticipants, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return Session{}, err
	}
	s.Date = date.Format("2006-01-02")
	return s, nil
}

// Insert writes a new session.
func (r *Repository) Insert(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO kajian_sessions (id, title, description, session_date, start_time, end_time, location, max_participants, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, s.ID, s.Title, s.Description, s.Date, s.StartTime, s.EndTime, s.Location, s.MaxParticipants, s.IsActive)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Update replaces the editable fields of a session.
func (r *Repository) Update(ctx context.Context, s Session) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE kajian_sessions
		SET title = $2, description = $3, session_date = $4, start_time = $5,
		    end_time = $6, location = $7, max_participants = $8, is_active = $9
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, s.ID, s.Title, s.Description, s.Date, s.StartTime, s.EndTime, s.Location, s.MaxParticipants, s.IsActive)
	return scanSession(row)
}

// GetByID returns a single session, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM kajian_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns sessions newest first, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM kajian_sessions`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY session_date DESC, start_time DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Deactivate clears the active flag. Sessions are never hard-deleted.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE kajian_sessions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
