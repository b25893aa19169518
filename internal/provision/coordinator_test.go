package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/invitation"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/participant"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/profile"
)

type fakeParticipants struct {
	rows       map[string]participant.Participant
	failInsert error
	failDelete error
}

func newFakeParticipants() *fakeParticipants {
	return &fakeParticipants{rows: map[string]participant.Participant{}}
}

func (f *fakeParticipants) Insert(_ context.Context, p participant.Participant) (participant.Participant, error) {
	if f.failInsert != nil {
		return participant.Participant{}, f.failInsert
	}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakeParticipants) Delete(_ context.Context, id string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.rows, id)
	return nil
}

type fakeProfiles struct {
	rows       map[string]profile.Profile
	failUpsert error
	blockCtx   bool
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[string]profile.Profile{}}
}

func (f *fakeProfiles) Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if f.blockCtx {
		<-ctx.Done()
		return profile.Profile{}, ctx.Err()
	}
	if f.failUpsert != nil {
		return profile.Profile{}, f.failUpsert
	}
	f.rows[p.ID] = p
	return p, nil
}

type fakeInvitations struct {
	inv      *invitation.Invitation
	usedIDs  []string
	failFind error
}

func (f *fakeInvitations) FindUnused(_ context.Context, token, email string) (*invitation.Invitation, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	if f.inv != nil && f.inv.Token == token && f.inv.Email == email && !f.inv.Used {
		return f.inv, nil
	}
	return nil, nil
}

func (f *fakeInvitations) MarkUsed(_ context.Context, id string) error {
	f.usedIDs = append(f.usedIDs, id)
	return nil
}

func staticID() string { return "participant-1" }

func TestQRTokenFormat(t *testing.T) {
	got := QRToken("ahmad.fauzi@example.com", "123e4567-e89b-12d3-a456-426614174000")
	want := "QR_ahmad_fauzi_example_com_123e4567"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	// Short account ids are used whole.
	if got := QRToken("a@b.c", "short"); got != "QR_a_b_c_short" {
		t.Fatalf("unexpected token %q", got)
	}
}

func TestRegisterParticipantSuccess(t *testing.T) {
	participants := newFakeParticipants()
	profiles := newFakeProfiles()
	c := NewCoordinator(participants, profiles, &fakeInvitations{}, time.Second, staticID)

	res, err := c.RegisterParticipant(context.Background(), "acct-1", "  Ahmad@Example.com ", " Ahmad ", "0812")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Participant == nil {
		t.Fatalf("expected a participant in the result")
	}
	if res.Participant.Email != "ahmad@example.com" || res.Participant.Name != "Ahmad" {
		t.Fatalf("inputs not normalized: %+v", res.Participant)
	}
	if res.Profile.Role != profile.RoleParticipant {
		t.Fatalf("expected participant role, got %s", res.Profile.Role)
	}
	if res.Profile.ParticipantID == nil || *res.Profile.ParticipantID != res.Participant.ID {
		t.Fatalf("profile must reference the new participant")
	}
	if res.Participant.QRToken != "QR_ahmad_example_com_acct-1" {
		t.Fatalf("unexpected qr token %q", res.Participant.QRToken)
	}
}

func TestRegisterParticipantCompensatesOnProfileFailure(t *testing.T) {
	participants := newFakeParticipants()
	profiles := newFakeProfiles()
	profiles.failUpsert = errors.New("profile write rejected")
	c := NewCoordinator(participants, profiles, &fakeInvitations{}, time.Second, staticID)

	_, err := c.RegisterParticipant(context.Background(), "acct-1", "a@b.c", "Ahmad", "")
	if err == nil {
		t.Fatalf("expected the profile error to surface")
	}
	if len(participants.rows) != 0 {
		t.Fatalf("participant must be rolled back, found %d rows", len(participants.rows))
	}
	if len(profiles.rows) != 0 {
		t.Fatalf("no profile may exist after failure")
	}
}

func TestRegisterParticipantCompensationFailureLeavesOrphan(t *testing.T) {
	// Documents the known gap: when the rollback itself fails, a
	// participant row survives with no profile pointing at it.
	participants := newFakeParticipants()
	participants.failDelete = errors.New("network down")
	profiles := newFakeProfiles()
	profiles.failUpsert = errors.New("profile write rejected")
	c := NewCoordinator(participants, profiles, &fakeInvitations{}, time.Second, staticID)

	_, err := c.RegisterParticipant(context.Background(), "acct-1", "a@b.c", "Ahmad", "")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if len(participants.rows) != 1 {
		t.Fatalf("expected the orphaned participant to remain")
	}
	if len(profiles.rows) != 0 {
		t.Fatalf("no profile may exist")
	}
}

func TestRegisterParticipantInsertFailureTouchesNothing(t *testing.T) {
	participants := newFakeParticipants()
	participants.failInsert = errors.New("insert rejected")
	profiles := newFakeProfiles()
	c := NewCoordinator(participants, profiles, &fakeInvitations{}, time.Second, staticID)

	if _, err := c.RegisterParticipant(context.Background(), "acct-1", "a@b.c", "Ahmad", ""); err == nil {
		t.Fatalf("expected the insert error to surface")
	}
	if len(profiles.rows) != 0 {
		t.Fatalf("profile must not be touched when the participant insert fails")
	}
}

func TestRegisterAdmin(t *testing.T) {
	profiles := newFakeProfiles()
	c := NewCoordinator(newFakeParticipants(), profiles, &fakeInvitations{}, time.Second, staticID)

	res, err := c.RegisterAdmin(context.Background(), "acct-9", "Admin@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Participant != nil {
		t.Fatalf("admin provisioning must not create a participant")
	}
	if res.Profile.Role != profile.RoleAdmin || res.Profile.ParticipantID != nil {
		t.Fatalf("unexpected profile %+v", res.Profile)
	}
}

func TestAcceptInvitation(t *testing.T) {
	participants := newFakeParticipants()
	profiles := newFakeProfiles()
	invitations := &fakeInvitations{inv: &invitation.Invitation{
		ID: "inv-1", Token: "tok", Email: "ahmad@example.com", Name: "Ahmad", Phone: "0812",
	}}
	c := NewCoordinator(participants, profiles, invitations, time.Second, staticID)

	res, err := c.AcceptInvitation(context.Background(), "tok", "Ahmad@Example.com", "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Participant == nil || res.Participant.Name != "Ahmad" || res.Participant.Phone != "0812" {
		t.Fatalf("invitation name/phone not used: %+v", res.Participant)
	}
	if len(invitations.usedIDs) != 1 || invitations.usedIDs[0] != "inv-1" {
		t.Fatalf("invitation must be marked used, got %v", invitations.usedIDs)
	}
}

func TestAcceptInvitationNotFound(t *testing.T) {
	c := NewCoordinator(newFakeParticipants(), newFakeProfiles(), &fakeInvitations{}, time.Second, staticID)
	if _, err := c.AcceptInvitation(context.Background(), "tok", "x@y.z", "acct-1"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestAcceptInvitationTimeoutCancelsAndRollsBack(t *testing.T) {
	participants := newFakeParticipants()
	profiles := newFakeProfiles()
	profiles.blockCtx = true // profile write hangs until the deadline fires
	invitations := &fakeInvitations{inv: &invitation.Invitation{
		ID: "inv-1", Token: "tok", Email: "a@b.c", Name: "Ahmad",
	}}
	c := NewCoordinator(participants, profiles, invitations, 20*time.Millisecond, staticID)

	_, err := c.AcceptInvitation(context.Background(), "tok", "a@b.c", "acct-1")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if len(participants.rows) != 0 {
		t.Fatalf("timed-out flow must roll the participant back")
	}
	if len(invitations.usedIDs) != 0 {
		t.Fatalf("invitation must not be marked used after a timeout")
	}
}
