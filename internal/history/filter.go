package history

import (
	"strings"
	"time"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
)

// Record is one attendance row joined with its participant and session,
// the shape the history screen and the CSV export both consume.
type Record struct {
	ID              string         `json:"id"`
	ParticipantName string         `json:"participant_name"`
	ParticipantMail string         `json:"participant_email"`
	SessionTitle    string         `json:"session_title"`
	SessionDate     string         `json:"session_date"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	Location        string         `json:"location,omitempty"`
	CheckInTime     time.Time      `json:"check_in_time"`
	CheckOutTime    *time.Time     `json:"check_out_time,omitempty"`
	Status          checkin.Status `json:"status"`
	Notes           string         `json:"notes,omitempty"`
}

// Filter narrows already-fetched records in memory. A record is kept iff
// the search term is empty or case-insensitively matches the participant
// name, participant email, or session title, and the month token is empty
// or prefixes the session date (YYYY-MM against YYYY-MM-DD). With both
// arguments empty the input comes back unchanged.
func Filter(records []Record, search, month string) []Record {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if search != "" && !matches(r, search) {
			continue
		}
		if month != "" && !strings.HasPrefix(r.SessionDate, month) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r Record, term string) bool {
	return strings.Contains(strings.ToLower(r.ParticipantName), term) ||
		strings.Contains(strings.ToLower(r.ParticipantMail), term) ||
		strings.Contains(strings.ToLower(r.SessionTitle), term)
}
