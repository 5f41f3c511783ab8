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

func provisioningFakes(userID uuid.UUID) (*fakeIdentity, *fakeProfiles, *fakeTenants, *fakeMembers, *trace) {
	tr := &trace{}
	identity := &fakeIdentity{
		trace: tr,
		user:  authgw.AuthUser{ID: userID, Email: "new@acme.com"},
		session: authgw.Session{
			AccessToken: "at", RefreshToken: "rt", TokenType: "bearer", ExpiresIn: 3600,
			User: authgw.AuthUser{ID: userID, Email: "new@acme.com"},
		},
	}
	profiles := &fakeProfiles{trace: tr, deleteRows: 1}
	tenants := &fakeTenants{trace: tr, tenant: domain.Tenant{ID: uuid.New()}}
	members := &fakeMembers{trace: tr}
	return identity, profiles, tenants, members, tr
}

func TestSignUpProvisionsEverything(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := provisioningFakes(userID)
	svc, bus := newTestService(identity, profiles, tenants, members)

	result, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if result.User.ID != userID || result.User.Role != domain.RoleTeamMember {
		t.Fatalf("unexpected profile %+v", result.User)
	}
	if tenants.createdName != "acme.com" {
		t.Fatalf("initial domain = %q, want the email's domain part", tenants.createdName)
	}
	if result.Domain.ManagerID != userID {
		t.Fatalf("domain manager = %s, want %s", result.Domain.ManagerID, userID)
	}
	if len(members.created) != 1 || members.created[0] != domain.RoleManager {
		t.Fatalf("expected one manager membership, got %v", members.created)
	}
	if result.Session.AccessToken != "at" {
		t.Fatalf("unexpected session %+v", result.Session)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("no compensations should run on success, got %v", tr.calls)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.UserProvisioned); !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
}

func TestSignUpRejectsBadCredentials(t *testing.T) {
	identity, profiles, tenants, members, _ := provisioningFakes(uuid.New())
	svc, _ := newTestService(identity, profiles, tenants, members)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "Test@123456"},
		{"missing password", "new@acme.com", ""},
		{"bad email format", "not-an-email", "Test@123456"},
		{"weak password", "new@acme.com", "weak"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tc.email, tc.password)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if identity.createCalls != 0 {
		t.Fatalf("no identity should be created for invalid input, got %d calls", identity.createCalls)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	identity, profiles, tenants, members, tr := provisioningFakes(uuid.New())
	identity.createErr = authgw.ErrEmailExists
	svc, _ := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("nothing committed, nothing to compensate, got %v", tr.calls)
	}
}

func TestSignUpProfileFailureRollsBackIdentity(t *testing.T) {
	userID := uuid.New()
	identity, profiles, tenants, members, tr := provisioningFakes(userID)
	profiles.createErr = errors.New("insert failed")
	svc, bus := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !reflect.DeepEqual(tr.calls, []string{"identity.delete"}) {
		t.Fatalf("compensations = %v, want only the identity delete", tr.calls)
	}
	if len(identity.deleted) != 1 || identity.deleted[0] != userID {
		t.Fatalf("identity %s should be deleted, got %v", userID, identity.deleted)
	}
	if len(bus.published) != 0 {
		t.Fatalf("no event on a failed signup, got %d", len(bus.published))
	}
}

func TestSignUpDomainConflictRollsBack(t *testing.T) {
	identity, profiles, tenants, members, tr := provisioningFakes(uuid.New())
	tenants.createErr = domain.ErrDuplicate
	svc, _ := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !reflect.DeepEqual(tr.calls, []string{"profiles.delete", "identity.delete"}) {
		t.Fatalf("compensations = %v, want profile then identity", tr.calls)
	}
}

func TestSignUpMembershipFailureRollsBackInReverseOrder(t *testing.T) {
	identity, profiles, tenants, members, tr := provisioningFakes(uuid.New())
	members.createErr = errors.New("insert failed")
	svc, _ := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	want := []string{"tenants.delete", "profiles.delete", "identity.delete"}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Fatalf("compensations = %v, want %v", tr.calls, want)
	}
}

func TestSignUpCompensationFailureNeverMasksCause(t *testing.T) {
	identity, profiles, tenants, members, tr := provisioningFakes(uuid.New())
	members.createErr = errors.New("insert failed")
	tenants.deleteErr = errors.New("delete failed")
	svc, _ := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	if appErr.Message != "failed to create team membership" {
		t.Fatalf("cause = %q, compensation failure must not replace it", appErr.Message)
	}
	details, ok := appErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", appErr.Details)
	}
	failed, ok := details["failed_compensations"].([]string)
	if !ok || !reflect.DeepEqual(failed, []string{"domain"}) {
		t.Fatalf("failed_compensations = %v, want [domain]", details["failed_compensations"])
	}
	// The remaining compensations still ran despite the domain delete failing.
	want := []string{"tenants.delete", "profiles.delete", "identity.delete"}
	if !reflect.DeepEqual(tr.calls, want) {
		t.Fatalf("compensations = %v, want %v", tr.calls, want)
	}
}

func TestSignUpSessionFailureSkipsRollback(t *testing.T) {
	identity, profiles, tenants, members, tr := provisioningFakes(uuid.New())
	identity.signInErr = errors.New("token endpoint down")
	svc, bus := newTestService(identity, profiles, tenants, members)

	_, err := svc.SignUp(context.Background(), "new@acme.com", "Test@123456")
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	// The account is fully provisioned; nothing is torn down.
	if len(tr.calls) != 0 {
		t.Fatalf("session failure must not compensate, got %v", tr.calls)
	}
	if len(bus.published) != 0 {
		t.Fatalf("no event without a session, got %d", len(bus.published))
	}
}
