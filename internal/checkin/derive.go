package checkin

import (
	"fmt"
	"time"
)

// Status classifies a stored check-in. Only these two values are ever
// written; "absent" exists solely in the computed report view (see the
// history package) and must never become a row value.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

// Derive classifies a check-in against a session's scheduled start.
//
// The session date and start time are combined as local wall-clock values.
// A check-in at or before start+grace is present; later check-ins are late,
// with a note counting whole minutes past the scheduled start itself, not
// past the grace threshold.
func Derive(date, startTime string, checkIn time.Time, graceMinutes int) (Status, string, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, time.Local)
	if err != nil {
		return "", "", fmt.Errorf("combine session start: %w", err)
	}
	threshold := start.Add(time.Duration(graceMinutes) * time.Minute)
	if !checkIn.After(threshold) {
		return StatusPresent, "", nil
	}
	minutesLate := int(checkIn.Sub(start).Minutes())
	return StatusLate, fmt.Sprintf("Terlambat %d menit", minutesLate), nil
}
