// Package provision keeps the participants and profiles tables consistent
// when an account is set up: either both records exist and the profile
// references the participant, or neither survives.
package provision

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/invitation"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/participant"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/profile"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/saga"
)

// ErrTimeout reports that a provisioning flow exceeded its wall-clock
// budget and was cancelled before issuing further writes.
var ErrTimeout = errors.New("provisioning took too long")

// ErrInvitationNotFound reports that no unused invitation matched.
var ErrInvitationNotFound = errors.New("invitation not found or already used")

// ParticipantStore is the slice of the participant repository the
// coordinator needs.
type ParticipantStore interface {
	Insert(ctx context.Context, p participant.Participant) (participant.Participant, error)
	Delete(ctx context.Context, id string) error
}

// ProfileStore is the slice of the profile repository the coordinator needs.
type ProfileStore interface {
	Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error)
}

// InvitationStore is the slice of the invitation repository the coordinator
// needs.
type InvitationStore interface {
	FindUnused(ctx context.Context, token, email string) (*invitation.Invitation, error)
	MarkUsed(ctx context.Context, id string) error
}

// Result carries what a successful provisioning produced. Participant is
// nil on the admin path.
type Result struct {
	Profile     profile.Profile          `json:"profile"`
	Participant *participant.Participant `json:"participant,omitempty"`
}

// Coordinator runs the multi-step account setup flows.
type Coordinator struct {
	participants ParticipantStore
	profiles     ProfileStore
	invitations  InvitationStore
	timeout      time.Duration
	newID        func() string
}

// NewCoordinator wires a coordinator. timeout bounds the invitation
// acceptance flow; newID supplies participant ids.
func NewCoordinator(participants ParticipantStore, profiles ProfileStore, invitations InvitationStore, timeout time.Duration, newID func() string) *Coordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		participants: participants,
		profiles:     profiles,
		invitations:  invitations,
		timeout:      timeout,
		newID:        newID,
	}
}

// RegisterParticipant provisions a participant account: a participant row,
// then a profile referencing it. If the profile write fails, the
// participant row is deleted again.
func (c *Coordinator) RegisterParticipant(ctx context.Context, accountID, email, name, phone string) (Result, error) {
	accountID = strings.TrimSpace(accountID)
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if accountID == "" || email == "" || name == "" {
		return Result{}, errors.New("account id, email and name required")
	}

	participantID := c.newID()
	var created participant.Participant
	var prof profile.Profile

	var flow saga.Saga
	flow.Add(saga.Step{
		Name: "create participant",
		Run: func(ctx context.Context) error {
			p, err := c.participants.Insert(ctx, participant.Participant{
				ID:      participantID,
				Name:    name,
				Email:   email,
				Phone:   phone,
				QRToken: QRToken(email, accountID),
			})
			if err != nil {
				return err
			}
			created = p
			log.Printf("provision %s: participant %s created", accountID, p.ID)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			log.Printf("provision %s: rolling back participant %s", accountID, participantID)
			return c.participants.Delete(ctx, participantID)
		},
	})
	flow.Add(saga.Step{
		Name: "upsert profile",
		Run: func(ctx context.Context) error {
			p, err := c.profiles.Upsert(ctx, profile.Profile{
				ID:            accountID,
				Email:         email,
				Role:          profile.RoleParticipant,
				ParticipantID: &participantID,
			})
			if err != nil {
				return err
			}
			prof = p
			log.Printf("provision %s: profile linked to participant %s", accountID, participantID)
			return nil
		},
	})

	if err := flow.Run(ctx); err != nil {
		log.Printf("provision %s failed: %v", accountID, err)
		return Result{}, err
	}
	return Result{Profile: prof, Participant: &created}, nil
}

// RegisterAdmin provisions an admin account: a single profile upsert with
// no participant reference, so no compensation is needed.
func (c *Coordinator) RegisterAdmin(ctx context.Context, accountID, email string) (Result, error) {
	accountID = strings.TrimSpace(accountID)
	email = strings.ToLower(strings.TrimSpace(email))
	if accountID == "" || email == "" {
		return Result{}, errors.New("account id and email required")
	}
	prof, err := c.profiles.Upsert(ctx, profile.Profile{
		ID:    accountID,
		Email: email,
		Role:  profile.RoleAdmin,
	})
	if err != nil {
		log.Printf("provision admin %s failed: %v", accountID, err)
		return Result{}, err
	}
	return Result{Profile: prof}, nil
}

// AcceptInvitation provisions a participant account from a pending
// invitation, using the invitation's stored name and phone. The whole flow
// runs under the configured deadline, and that deadline is threaded through
// every store call: once it fires, no further writes are issued.
func (c *Coordinator) AcceptInvitation(ctx context.Context, token, email, accountID string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	inv, err := c.invitations.FindUnused(ctx, strings.TrimSpace(token), email)
	if err != nil {
		return Result{}, c.mapTimeout(err)
	}
	if inv == nil {
		return Result{}, ErrInvitationNotFound
	}

	res, err := c.RegisterParticipant(ctx, accountID, email, inv.Name, inv.Phone)
	if err != nil {
		return Result{}, c.mapTimeout(err)
	}

	if err := c.invitations.MarkUsed(ctx, inv.ID); err != nil {
		// The account is fully provisioned; a stale unused flag is the
		// lesser evil, so log and carry on.
		log.Printf("provision %s: mark invitation %s used failed: %v", accountID, inv.ID, err)
	}
	return res, nil
}

func (c *Coordinator) mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
