package invitation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invitation is a pending offer to join the roster, matched by (token,
// email) when accepted.
type Invitation struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists invitations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new invitation. The email is stored trimmed and
// lowercased, the same form acceptance uses for the lookup.
func (r *Repository) Insert(ctx context.Context, inv Invitation) (Invitation, error) {
	inv = normalized(inv)
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Token == "" {
		inv.Token = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO participant_invitations (id, token, email, name, phone)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, inv.ID, inv.Token, inv.Email, inv.Name, inv.Phone)
	if err := row.Scan(&inv.CreatedAt); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

func normalized(inv Invitation) Invitation {
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	inv.Name = strings.TrimSpace(inv.Name)
	inv.Phone = strings.TrimSpace(inv.Phone)
	return inv
}

// FindUnused returns the unused invitation matching token and email, nil
// when there is none.
func (r *Repository) FindUnused(ctx context.Context, token, email string) (*Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token, email, name, phone, used, created_at
		FROM participant_invitations
		WHERE token = $1 AND email = $2 AND used = FALSE
	`, token, email)
	var inv Invitation
	if err := row.Scan(&inv.ID, &inv.Token, &inv.Email, &inv.Name, &inv.Phone, &inv.Used, &inv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// MarkUsed flags an invitation consumed.
func (r *Repository) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE participant_invitations SET used = TRUE WHERE id = $1`, id)
	return err
}
