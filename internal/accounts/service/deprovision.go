package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/accounts/validator"
	"konduktv_backend/internal/authgw"
	"konduktv_backend/internal/events"
	"konduktv_backend/platform/apperr"
)

const deprovisionWorkflow = "deprovision"

// DeleteAccount runs the deprovisioning workflow for the caller's own
// account: memberships of owned domains, the domains, the profile, and
// finally the hosted-auth identity, in strict dependency order. Admin
// accounts cannot be deleted through this path.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.log.WorkflowStep(deprovisionWorkflow, "precheck", err)
		return apperr.Wrap(apperr.KindInternal, "failed to verify user role", err).WithOp("deprovision.precheck")
	}

	switch profile.Role {
	case domain.RoleAdmin:
		return apperr.Forbidden("admin users cannot be deleted through this endpoint")
	case domain.RoleManager, domain.RoleTeamMember:
	}

	return s.teardown(ctx, userID, profile.Email)
}

// CleanupByEmail is the operator teardown for test domain. It resolves the
// identity by email and runs the same dependency-ordered deletes as
// DeleteAccount. Only addresses under the configured test email domain may
// be removed; a missing identity is a successful no-op.
func (s *Service) CleanupByEmail(ctx context.Context, email, testEmailDomain string) (string, error) {
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if err := validator.ValidateEmail(email); err != nil {
		return "", apperr.Validation(err.Error())
	}
	if !strings.HasSuffix(email, "@"+testEmailDomain) {
		return "", apperr.Forbidden("only test users can be cleaned up")
	}

	user, err := s.identity.GetUserByEmail(ctx, email)
	if errors.Is(err, authgw.ErrNotFound) {
		return "No user found with this email", nil
	}
	if err != nil {
		return "", apperr.Upstream("failed to lookup user", err).WithOp("cleanup.lookup")
	}

	if err := s.teardown(ctx, user.ID, email); err != nil {
		return "", err
	}
	return "User and associated data deleted successfully", nil
}

// teardown deletes everything belonging to the user. Each step aborts the
// workflow on failure; nothing after a failed step runs, so a partial
// teardown can be retried. Zero-row deletes are success: rerunning after a
// partial failure is safe.
func (s *Service) teardown(ctx context.Context, userID uuid.UUID, email string) error {
	tenantIDs, err := s.tenants.ListTenantIDsByManager(ctx, userID)
	if err != nil {
		s.log.WorkflowStep(deprovisionWorkflow, "domains.lookup", err)
		return apperr.Wrap(apperr.KindInternal, "failed to lookup user domains", err).WithOp("deprovision.domains.lookup")
	}

	if len(tenantIDs) > 0 {
		if _, err := s.members.DeleteMembershipsByTenants(ctx, tenantIDs); err != nil {
			s.log.WorkflowStep(deprovisionWorkflow, "teams", err)
			return apperr.Wrap(apperr.KindInternal, "failed to delete user teams", err).WithOp("deprovision.teams")
		}
		if _, err := s.tenants.DeleteTenants(ctx, tenantIDs, userID); err != nil {
			s.log.WorkflowStep(deprovisionWorkflow, "domains", err)
			return apperr.Wrap(apperr.KindInternal, "failed to delete user domains", err).WithOp("deprovision.domains")
		}
	}

	// Memberships in domains the user merely joined still reference the
	// profile row and would block its delete.
	if _, err := s.members.DeleteMembershipsByUser(ctx, userID); err != nil {
		s.log.WorkflowStep(deprovisionWorkflow, "memberships", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete user teams", err).WithOp("deprovision.memberships")
	}

	if _, err := s.profiles.DeleteProfile(ctx, userID); err != nil {
		s.log.WorkflowStep(deprovisionWorkflow, "profile", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete user profile", err).WithOp("deprovision.profile")
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		s.log.WorkflowStep(deprovisionWorkflow, "identity", err)
		return apperr.Upstream("failed to delete user from auth", err).WithOp("deprovision.identity")
	}

	s.bus.Publish(ctx, events.UserDeprovisioned{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Email:     email,
	})
	return nil
}
