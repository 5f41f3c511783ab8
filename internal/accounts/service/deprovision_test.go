package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/authgw"
	"konduktv_backend/internal/events"
	"konduktv_backend/platform/apperr"
)

func deprovisioningFakes(userID uuid.UUID, role domain.Role, managed []uuid.UUID) (*fakeIdentity, *fakeProfiles, *fakeTenants, *fakeMembers, *trace) {
	tr := &trace{}
	identity := &fakeIdentity{
		trace:   tr,
		getUser: authgw.AuthUser{ID: userID, Email: "test@b.com"},
	}
	profiles := &fakeProfiles{
		trace:      tr,
		profile:    domain.Profile{ID: userID, Email: "test@b.com", Role: role},
		deleteRows: 1,
	}
	tenants := &fakeTenants{trace: tr, managed: managed}
	members := &fakeMembers{trace: tr}
	return identity, profiles, tenants, members, tr
}

func TestDeleteAccountOrdersDeletes(t *testing.T) {
	userID := uuid.New()
	owned := []uuid.UUID{uuid.New(), uuid.New()}
	identity, profiles, tenants, members, tr := deprovisioningFakes(userID, domain.RoleManager, owned)
	svc, bus := newTestService(identity, profiles, tenants, members)

	if err := svc.DeleteAccount(context.Background(), userID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	want := []string{"members.delete", "tenants.delete", "members.deleteByUser", "profiles.delete", "identity.delete"}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Fatalf("delete order = %v, want %v", tr.calls, want)
	}
	if !reflect.DeepEqual(members.deletedBy, [][]uuid.UUID{owned}) {
		t.Fatalf("memberships deleted for %v, want %v", members.deletedBy, owned)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.UserDeprovisioned); !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
}

func TestDeleteAccountWithoutDomains(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := deprovisioningFakes(userID, domain.RoleTeamMember, nil)
	svc, _ := newTestService(identity, profiles, tenants, members)

	if err := svc.DeleteAccount(context.Background(), userID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	// Domain-scoped deletes are skipped for users who own nothing, but the
	// user's own memberships must still go before the profile: a row in a
	// domain the user merely joined references the profile.
	want := []string{"members.deleteByUser", "profiles.delete", "identity.delete"}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Fatalf("delete order = %v, want %v", tr.calls, want)
	}
	if !reflect.DeepEqual(members.deletedUsers, []uuid.UUID{userID}) {
		t.Fatalf("memberships deleted for %v, want %v", members.deletedUsers, userID)
	}
}

func TestDeleteAccountStopsWhenMembershipDeleteFails(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := deprovisioningFakes(userID, domain.RoleTeamMember, nil)
	members.deleteUserErr = errors.New("delete failed")
	svc, bus := newTestService(identity, profiles, tenants, members)

	err := svc.DeleteAccount(context.Background(), userID)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !reflect.DeepEqual(tr.calls, []string{"members.deleteByUser"}) {
		t.Fatalf("calls = %v, want only the failed membership delete", tr.calls)
	}
	if len(bus.published) != 0 {
		t.Fatalf("no event on a failed teardown, got %d", len(bus.published))
	}
}

func TestDeleteAccountRejectsAdmin(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := deprovisioningFakes(userID, domain.RoleAdmin, nil)
	svc, _ := newTestService(identity, profiles, tenants, members)

	err := svc.DeleteAccount(context.Background(), userID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("nothing should be deleted for an admin, got %v", tr.calls)
	}
}

func TestDeleteAccountStopsAtFirstFailure(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := deprovisioningFakes(userID, domain.RoleManager, []uuid.UUID{uuid.New()})
	members.deleteErr = errors.New("delete failed")
	svc, bus := newTestService(identity, profiles, tenants, members)

	err := svc.DeleteAccount(context.Background(), userID)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	// Hard stop: nothing after the failed step runs, so a retry can resume.
	if !reflect.DeepEqual(tr.calls, []string{"members.delete"}) {
		t.Fatalf("calls = %v, want only the failed membership delete", tr.calls)
	}
	if len(bus.published) != 0 {
		t.Fatalf("no event on a failed teardown, got %d", len(bus.published))
	}
}

func TestCleanupRejectsNonTestEmails(t *testing.T) {
	identity, profiles, tenants, members, tr := deprovisioningFakes(uuid.New(), domain.RoleTeamMember, nil)
	svc, _ := newTestService(identity, profiles, tenants, members)

	_, err := svc.CleanupByEmail(context.Background(), "user@prod.com", "b.com")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("nothing should be deleted, got %v", tr.calls)
	}
}

func TestCleanupMissingUserIsNoOp(t *testing.T) {
	identity, profiles, tenants, members, tr := deprovisioningFakes(uuid.New(), domain.RoleTeamMember, nil)
	identity.getUserErr = authgw.ErrNotFound
	svc, _ := newTestService(identity, profiles, tenants, members)

	msg, err := svc.CleanupByEmail(context.Background(), "gone@b.com", "b.com")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if msg != "No user found with this email" {
		t.Fatalf("message = %q", msg)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("nothing should be deleted, got %v", tr.calls)
	}
}

func TestCleanupDeletesTestUser(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, _ := deprovisioningFakes(userID, domain.RoleTeamMember, nil)
	svc, _ := newTestService(identity, profiles, tenants, members)

	msg, err := svc.CleanupByEmail(context.Background(), "test@b.com", "b.com")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if msg != "User and associated data deleted successfully" {
		t.Fatalf("message = %q", msg)
	}
	if len(identity.deleted) != 1 || identity.deleted[0] != userID {
		t.Fatalf("identity %s should be deleted, got %v", userID, identity.deleted)
	}
}
