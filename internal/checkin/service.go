package checkin

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/participant"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/queue"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/session"
)

// Rejection reasons, each a distinct user-visible outcome.
var (
	ErrSessionNotFound     = errors.New("session not found or inactive")
	ErrParticipantNotFound = errors.New("participant profile not found")
	ErrBlacklisted         = errors.New("participant is blacklisted")
)

// SessionStore resolves the target session.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*session.Session, error)
}

// ParticipantStore resolves the checking-in participant.
type ParticipantStore interface {
	GetByID(ctx context.Context, id string) (*participant.Participant, error)
	GetByQRToken(ctx context.Context, token string) (*participant.Participant, error)
}

// AttendanceStore persists attendance rows.
type AttendanceStore interface {
	Exists(ctx context.Context, participantID, sessionID string) (bool, error)
	InsertUnique(ctx context.Context, a Attendance) (Attendance, bool, error)
}

// GraceSource supplies the late-threshold minutes in force at check-in time.
type GraceSource interface {
	LateThresholdMinutes(ctx context.Context) int
}

// Outcome is the result of an admitted check-in attempt. A repeat check-in
// is informational, not an error: AlreadyCheckedIn is set and no new row
// was written.
type Outcome struct {
	Attendance       Attendance `json:"attendance"`
	AlreadyCheckedIn bool       `json:"already_checked_in"`
	Message          string     `json:"message,omitempty"`
}

// Service admits check-ins, derives their status, and records them.
type Service struct {
	sessions     SessionStore
	participants ParticipantStore
	attendance   AttendanceStore
	grace        GraceSource
	queue        queue.Queue
	now          func() time.Time
}

// NewService wires the check-in flow. queue may be nil; publishing is
// best-effort either way.
func NewService(sessions SessionStore, participants ParticipantStore, attendance AttendanceStore, grace GraceSource, q queue.Queue) *Service {
	return &Service{
		sessions:     sessions,
		participants: participants,
		attendance:   attendance,
		grace:        grace,
		queue:        q,
		now:          time.Now,
	}
}

// SelfCheckIn records a check-in for the participant linked to the calling
// account. There is deliberately no blacklist check on this path; only the
// admin scanning flow enforces the blacklist.
func (s *Service) SelfCheckIn(ctx context.Context, participantID, sessionID string) (Outcome, error) {
	if participantID == "" {
		checkinsRejected.WithLabelValues("no_participant").Inc()
		return Outcome{}, ErrParticipantNotFound
	}
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return Outcome{}, err
	}
	if p == nil {
		checkinsRejected.WithLabelValues("no_participant").Inc()
		return Outcome{}, ErrParticipantNotFound
	}
	return s.admit(ctx, *p, sessionID)
}

// ScanCheckIn records a check-in for the participant a scanned QR payload
// resolves to. Blacklisted participants are rejected here.
func (s *Service) ScanCheckIn(ctx context.Context, qrToken, sessionID string) (Outcome, error) {
	p, err := s.participants.GetByQRToken(ctx, qrToken)
	if err != nil {
		return Outcome{}, err
	}
	if p == nil {
		checkinsRejected.WithLabelValues("no_participant").Inc()
		return Outcome{}, ErrParticipantNotFound
	}
	if p.IsBlacklisted {
		checkinsRejected.WithLabelValues("blacklisted").Inc()
		return Outcome{}, ErrBlacklisted
	}
	return s.admit(ctx, *p, sessionID)
}

func (s *Service) admit(ctx context.Context, p participant.Participant, sessionID string) (Outcome, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if sess == nil || !sess.IsActive {
		checkinsRejected.WithLabelValues("session_inactive").Inc()
		return Outcome{}, ErrSessionNotFound
	}

	exists, err := s.attendance.Exists(ctx, p.ID, sess.ID)
	if err != nil {
		return Outcome{}, err
	}
	if exists {
		return Outcome{AlreadyCheckedIn: true, Message: "already checked in"}, nil
	}

	now := s.now()
	status, note, err := Derive(sess.Date, sess.StartTime, now, s.grace.LateThresholdMinutes(ctx))
	if err != nil {
		return Outcome{}, err
	}

	a, inserted, err := s.attendance.InsertUnique(ctx, Attendance{
		ParticipantID: p.ID,
		SessionID:     sess.ID,
		CheckInTime:   now,
		Status:        status,
		Notes:         note,
	})
	if err != nil {
		return Outcome{}, err
	}
	if !inserted {
		// Lost a race against a concurrent check-in for the same pair;
		// the unique key kept the row count at one.
		return Outcome{AlreadyCheckedIn: true, Message: "already checked in"}, nil
	}

	checkinsTotal.WithLabelValues(string(status)).Inc()
	if s.queue != nil {
		if err := s.queue.Publish(ctx, queue.Message{Type: "checkin", Body: []byte(sess.ID)}); err != nil {
			log.Printf("checkin %s: queue publish failed: %v", a.ID, err)
		}
	}
	log.Printf("checkin %s: participant=%s session=%s status=%s", a.ID, p.ID, sess.ID, status)
	return Outcome{Attendance: a}, nil
}
