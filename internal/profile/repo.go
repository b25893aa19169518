package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Roles a profile can hold.
const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
)

// Profile links an authentication account to its role and, for participant
// accounts, to a participant record. A participant profile with a nil
// ParticipantID is a legal transient state while provisioning is underway.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	ParticipantID *string   `json:"participant_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository persists profiles in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or replaces the profile keyed by account id. There is
// exactly one profile per account.
func (r *Repository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, email, role, participant_id)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			participant_id = EXCLUDED.participant_id
		RETURNING created_at
	`, p.ID, p.Email, p.Role, p.ParticipantID)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// GetByID returns the profile for an account, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, participant_id, created_at FROM profiles WHERE id = $1
	`, id)
	var p Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Role, &p.ParticipantID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetByParticipantID returns the profile referencing a participant, nil
// when none does.
func (r *Repository) GetByParticipantID(ctx context.Context, participantID string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, participant_id, created_at FROM profiles WHERE participant_id = $1
	`, participantID)
	var p Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Role, &p.ParticipantID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
