package history

import (
	"reflect"
	"testing"
	"time"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
)

func sampleRecords() []Record {
	checkIn := time.Date(2025, 3, 10, 19, 5, 0, 0, time.Local)
	return []Record{
		{
			ID: "a1", ParticipantName: "Ahmad Fauzi", ParticipantMail: "ahmad@example.com",
			SessionTitle: "Kajian Tafsir", SessionDate: "2025-03-10",
			StartTime: "19:00", EndTime: "21:00", CheckInTime: checkIn,
			Status: checkin.StatusPresent,
		},
		{
			ID: "a2", ParticipantName: "Budi Santoso", ParticipantMail: "budi@example.com",
			SessionTitle: "Kajian Hadits", SessionDate: "2025-04-02",
			StartTime: "20:00", EndTime: "21:30", CheckInTime: checkIn.AddDate(0, 0, 23),
			Status: checkin.StatusLate, Notes: "Terlambat 25 menit",
		},
		{
			ID: "a3", ParticipantName: "Citra Dewi", ParticipantMail: "citra@example.com",
			SessionTitle: "Kajian Fiqih", SessionDate: "2025-04-16",
			StartTime: "19:30", EndTime: "21:00", CheckInTime: checkIn.AddDate(0, 1, 6),
			Status: checkin.StatusPresent,
		},
	}
}

func TestFilterIdentity(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, "", "")
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("empty filter must return input unchanged")
	}
}

func TestFilterSearchMatchesNameEmailTitle(t *testing.T) {
	records := sampleRecords()

	byName := Filter(records, "ahmad", "")
	if len(byName) != 1 || byName[0].ID != "a1" {
		t.Fatalf("name search: expected [a1], got %+v", byName)
	}

	byEmail := Filter(records, "BUDI@", "")
	if len(byEmail) != 1 || byEmail[0].ID != "a2" {
		t.Fatalf("email search must be case-insensitive, got %+v", byEmail)
	}

	byTitle := Filter(records, "fiqih", "")
	if len(byTitle) != 1 || byTitle[0].ID != "a3" {
		t.Fatalf("title search: expected [a3], got %+v", byTitle)
	}

	none := Filter(records, "zzz", "")
	if len(none) != 0 {
		t.Fatalf("no record should match, got %+v", none)
	}
}

func TestFilterByMonth(t *testing.T) {
	records := sampleRecords()
	april := Filter(records, "", "2025-04")
	if len(april) != 2 {
		t.Fatalf("expected 2 april records, got %d", len(april))
	}
	for _, r := range april {
		if r.SessionDate[:7] != "2025-04" {
			t.Fatalf("record %s outside month filter", r.ID)
		}
	}
}

func TestFilterCombined(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, "kajian", "2025-03")
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("combined filter: expected [a1], got %+v", got)
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := sampleRecords()
	once := Filter(records, "kajian", "2025-04")
	twice := Filter(once, "kajian", "2025-04")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter must be idempotent")
	}
}
