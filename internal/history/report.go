package history

import (
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/session"
)

// ReportStatus is the three-valued display classification. Unlike
// checkin.Status it includes Absent, which only ever exists in this
// computed view and is never stored.
type ReportStatus string

const (
	ReportPresent ReportStatus = "present"
	ReportLate    ReportStatus = "late"
	ReportAbsent  ReportStatus = "absent"
)

// ReportEntry classifies one scheduled session for one participant.
type ReportEntry struct {
	SessionID    string       `json:"session_id"`
	SessionTitle string       `json:"session_title"`
	SessionDate  string       `json:"session_date"`
	Status       ReportStatus `json:"status"`
}

// Report summarizes a participant's record across all scheduled sessions.
type Report struct {
	ParticipantID string        `json:"participant_id"`
	Total         int           `json:"total_sessions"`
	Present       int           `json:"present"`
	Late          int           `json:"late"`
	Absent        int           `json:"absent"`
	Entries       []ReportEntry `json:"entries"`
}

// BuildReport derives absence by set-subtraction: every scheduled session
// without an attendance row counts as absent. A session the participant was
// never scheduled for is indistinguishable from one they skipped; absence
// is a statistic over the schedule, not a row attribute.
func BuildReport(participantID string, sessions []session.Session, rows []checkin.Attendance) Report {
	attended := make(map[string]checkin.Status, len(rows))
	for _, a := range rows {
		attended[a.SessionID] = a.Status
	}

	rep := Report{ParticipantID: participantID, Total: len(sessions)}
	for _, s := range sessions {
		entry := ReportEntry{SessionID: s.ID, SessionTitle: s.Title, SessionDate: s.Date}
		switch attended[s.ID] {
		case checkin.StatusPresent:
			entry.Status = ReportPresent
			rep.Present++
		case checkin.StatusLate:
			entry.Status = ReportLate
			rep.Late++
		default:
			entry.Status = ReportAbsent
			rep.Absent++
		}
		rep.Entries = append(rep.Entries, entry)
	}
	return rep
}
