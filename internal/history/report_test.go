package history

import (
	"testing"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/session"
)

func TestBuildReportAbsenceBySetSubtraction(t *testing.T) {
	sessions := []session.Session{
		{ID: "s1", Title: "Kajian Tafsir", Date: "2025-03-10"},
		{ID: "s2", Title: "Kajian Hadits", Date: "2025-03-17"},
		{ID: "s3", Title: "Kajian Fiqih", Date: "2025-03-24"},
	}
	rows := []checkin.Attendance{
		{SessionID: "s1", Status: checkin.StatusPresent},
		{SessionID: "s3", Status: checkin.StatusLate},
	}

	rep := BuildReport("p1", sessions, rows)
	if rep.Total != 3 || rep.Present != 1 || rep.Late != 1 || rep.Absent != 1 {
		t.Fatalf("unexpected totals: %+v", rep)
	}

	statuses := map[string]ReportStatus{}
	for _, e := range rep.Entries {
		statuses[e.SessionID] = e.Status
	}
	if statuses["s1"] != ReportPresent || statuses["s2"] != ReportAbsent || statuses["s3"] != ReportLate {
		t.Fatalf("unexpected per-session statuses: %+v", statuses)
	}
}

func TestBuildReportNoRows(t *testing.T) {
	sessions := []session.Session{{ID: "s1"}, {ID: "s2"}}
	rep := BuildReport("p1", sessions, nil)
	if rep.Absent != 2 || rep.Present != 0 || rep.Late != 0 {
		t.Fatalf("every scheduled session should be absent, got %+v", rep)
	}
}
