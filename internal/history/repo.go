package history

import (
	"context"
	"database/sql"
	"time"
)

// Repository reads the joined history view from Postgres. Search and month
// narrowing happen in memory via Filter, not in SQL.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListAll returns every attendance row joined with its participant and
// session, newest check-in first.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, p.name, p.email, s.title, s.session_date, s.start_time, s.end_time,
		       s.location, a.check_in_time, a.check_out_time, a.status, a.notes
		FROM attendance a
		JOIN participants p ON p.id = a.participant_id
		JOIN kajian_sessions s ON s.id = a.session_id
		ORDER BY a.check_in_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		var date time.Time
		if err := rows.Scan(&rec.ID, &rec.ParticipantName, &rec.ParticipantMail, &rec.SessionTitle,
			&date, &rec.StartTime, &rec.EndTime, &rec.Location,
			&rec.CheckInTime, &rec.CheckOutTime, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		rec.SessionDate = date.Format("2006-01-02")
		res = append(res, rec)
	}
	return res, rows.Err()
}
