package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Service validates and coordinates session management.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create validates input and stores a new, active session.
func (s *Service) Create(ctx context.Context, in Session) (Session, error) {
	if err := validate(in); err != nil {
		return Session{}, err
	}
	in.IsActive = true
	return s.repo.Insert(ctx, in)
}

// Update validates input and replaces an existing session.
func (s *Service) Update(ctx context.Context, in Session) (Session, error) {
	if in.ID == "" {
		return Session{}, errors.New("session id required")
	}
	if err := validate(in); err != nil {
		return Session{}, err
	}
	existing, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return Session{}, err
	}
	if existing == nil {
		return Session{}, ErrNotFound
	}
	return s.repo.Update(ctx, in)
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if found == nil {
		return Session{}, ErrNotFound
	}
	return *found, nil
}

// List returns all sessions, or only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Session, error) {
	return s.repo.List(ctx, activeOnly)
}

// Deactivate soft-deletes a session.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func validate(in Session) error {
	if in.Title == "" {
		return errors.New("title required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	for _, v := range []string{in.StartTime, in.EndTime} {
		if _, err := time.Parse("15:04", v); err != nil {
			return errors.New("times must be HH:MM")
		}
	}
	if in.MaxParticipants != nil && *in.MaxParticipants <= 0 {
		return errors.New("max participants must be positive")
	}
	return nil
}
