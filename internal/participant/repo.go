package participant

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Participant is a person eligible to attend sessions, identified by a QR
// token.
type Participant struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	QRToken         string    `json:"qr_token"`
	IsBlacklisted   bool      `json:"is_blacklisted"`
	BlacklistReason *string   `json:"blacklist_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository persists participants in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const participantColumns = `id, name, email, phone, qr_token, is_blacklisted, blacklist_reason, created_at`

func scanParticipant(row interface{ Scan(...any) error }) (Participant, error) {
	var p Participant
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.QRToken, &p.IsBlacklisted, &p.BlacklistReason, &p.CreatedAt)
	return p, err
}

// Insert writes a new participant.
func (r *Repository) Insert(ctx context.Context, p Participant) (Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, name, email, phone, qr_token)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, p.ID, p.Name, p.Email, p.Phone, p.QRToken)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Participant{}, err
	}
	return p, nil
}

// GetByID returns a participant, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Participant, error) {
	return r.getOne(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
}

// GetByEmail looks a participant up by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Participant, error) {
	return r.getOne(ctx, `SELECT `+participantColumns+` FROM participants WHERE email = $1`, email)
}

// GetByQRToken resolves the participant a scanned QR payload belongs to.
func (r *Repository) GetByQRToken(ctx context.Context, token string) (*Participant, error) {
	return r.getOne(ctx, `SELECT `+participantColumns+` FROM participants WHERE qr_token = $1`, token)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns participants ordered by name, narrowed by a case-insensitive
// search over name and email when term is non-empty.
func (r *Repository) List(ctx context.Context, term string) ([]Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants`
	args := []any{}
	if term != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+term+"%")
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// SetBlacklist flips the blacklist flag; reason is cleared when lifting.
func (r *Repository) SetBlacklist(ctx context.Context, id string, blacklisted bool, reason *string) error {
	if !blacklisted {
		reason = nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE participants SET is_blacklisted = $2, blacklist_reason = $3 WHERE id = $1
	`, id, blacklisted, reason)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a participant together with its attendance rows and linked
// profile. The three deletes run in one transaction so the cascade cannot
// leave a half-removed participant behind.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE participant_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE participant_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
