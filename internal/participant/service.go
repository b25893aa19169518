package participant

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
)

// ErrNotFound is returned when a participant does not exist.
var ErrNotFound = errors.New("participant not found")

// ErrEmailTaken is returned when an email already has a participant record.
var ErrEmailTaken = errors.New("email already registered")

// TokenFunc derives the QR token for a new participant from its normalized
// email and freshly assigned id.
type TokenFunc func(email, id string) string

// Service coordinates roster management.
type Service struct {
	repo     *Repository
	newToken TokenFunc
	newID    func() string
}

// NewService creates a service backed by a repository. newID supplies
// participant ids, newToken derives QR tokens from (email, id).
func NewService(repo *Repository, newID func() string, newToken TokenFunc) *Service {
	return &Service{repo: repo, newToken: newToken, newID: newID}
}

// Create adds a participant directly (the admin path; self-registration
// goes through provisioning instead).
func (s *Service) Create(ctx context.Context, name, email, phone string) (Participant, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return Participant{}, errors.New("name and email required")
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return Participant{}, err
	} else if existing != nil {
		return Participant{}, ErrEmailTaken
	}
	id := s.newID()
	p := Participant{
		ID:      id,
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(phone),
		QRToken: s.newToken(email, id),
	}
	return s.repo.Insert(ctx, p)
}

// Get returns a participant by id.
func (s *Service) Get(ctx context.Context, id string) (Participant, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Participant{}, err
	}
	if p == nil {
		return Participant{}, ErrNotFound
	}
	return *p, nil
}

// List returns the roster, optionally narrowed by a search term.
func (s *Service) List(ctx context.Context, term string) ([]Participant, error) {
	return s.repo.List(ctx, strings.TrimSpace(term))
}

// Blacklist marks a participant blocked with a reason.
func (s *Service) Blacklist(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	if err := s.repo.SetBlacklist(ctx, id, true, reasonPtr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Unblacklist lifts a block.
func (s *Service) Unblacklist(ctx context.Context, id string) error {
	if err := s.repo.SetBlacklist(ctx, id, false, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a participant and everything hanging off it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		log.Printf("participant delete %s failed: %v", id, err)
		return err
	}
	log.Printf("participant %s deleted with attendance and profile", id)
	return nil
}
