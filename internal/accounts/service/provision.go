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

const provisionWorkflow = "provision"

// compensation undoes one committed provisioning step. Compensations are
// collected as steps succeed and run in reverse order on failure.
type compensation struct {
	step string
	run  func(ctx context.Context) error
}

// SignUpResult is what a completed provisioning workflow returns.
type SignUpResult struct {
	User    domain.Profile
	Domain  domain.Tenant
	Session domain.Session
}

// SignUp runs the provisioning workflow: identity, profile, initial domain,
// and manager membership, in that order. Any step failure rolls back every
// step already committed before the error is returned; only the final
// session step fails without rollback, since the account is complete at
// that point.
func (s *Service) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return SignUpResult{}, err
	}

	var compensations []compensation

	// Step 1: identity.
	authUser, err := s.identity.CreateUser(ctx, email, password)
	if err != nil {
		s.log.WorkflowStep(provisionWorkflow, "identity", err)
		if errors.Is(err, authgw.ErrEmailExists) {
			return SignUpResult{}, apperr.Conflict("an account with this email already exists")
		}
		return SignUpResult{}, apperr.Upstream("failed to create user", err).WithOp("provision.identity")
	}
	compensations = append(compensations, compensation{
		step: "identity",
		run:  func(ctx context.Context) error { return s.identity.DeleteUser(ctx, authUser.ID) },
	})

	// Step 2: profile, id shared with the identity.
	profile, err := s.profiles.CreateProfile(ctx, authUser.ID, email, domain.RoleTeamMember)
	if err != nil {
		s.log.WorkflowStep(provisionWorkflow, "profile", err)
		return SignUpResult{}, s.compensated(ctx,
			apperr.Wrap(apperr.KindInternal, "failed to create user profile", err).WithOp("provision.profile"),
			compensations)
	}
	compensations = append(compensations, compensation{
		step: "profile",
		run: func(ctx context.Context) error {
			_, err := s.profiles.DeleteProfile(ctx, authUser.ID)
			return err
		},
	})

	// Step 3: initial domain, named after the email's domain part.
	tenant, err := s.tenants.CreateTenant(ctx, emailDomain(email), authUser.ID)
	if err != nil {
		s.log.WorkflowStep(provisionWorkflow, "domain", err)
		if errors.Is(err, domain.ErrDuplicate) {
			return SignUpResult{}, s.compensated(ctx,
				apperr.Conflict("a domain with this name already exists").WithOp("provision.domain"),
				compensations)
		}
		return SignUpResult{}, s.compensated(ctx,
			apperr.Wrap(apperr.KindInternal, "failed to create initial domain", err).WithOp("provision.domain"),
			compensations)
	}
	compensations = append(compensations, compensation{
		step: "domain",
		run: func(ctx context.Context) error {
			_, err := s.tenants.DeleteTenants(ctx, []uuid.UUID{tenant.ID}, authUser.ID)
			return err
		},
	})

	// Step 4: manager membership linking the new user to the new domain.
	if err := s.members.CreateMembership(ctx, tenant.ID, authUser.ID, domain.RoleManager); err != nil {
		s.log.WorkflowStep(provisionWorkflow, "membership", err)
		return SignUpResult{}, s.compensated(ctx,
			apperr.Wrap(apperr.KindInternal, "failed to create team membership", err).WithOp("provision.membership"),
			compensations)
	}

	// Step 5: session. The account is fully provisioned; a failure here is
	// returned without rollback and the user can sign in normally.
	session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.WorkflowStep(provisionWorkflow, "session", err)
		return SignUpResult{}, apperr.Upstream("failed to create session", err).WithOp("provision.session")
	}

	s.log.AuthEvent("signup", email, true, "")
	s.bus.Publish(ctx, events.UserProvisioned{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     authUser.ID,
		Email:      email,
		DomainID:   tenant.ID,
		DomainName: tenant.DomainName,
	})

	return SignUpResult{User: profile, Domain: tenant, Session: toSession(session)}, nil
}

// compensated runs the collected compensations in reverse order and returns
// the original error. Compensation failures are logged and attached as
// details; they never replace cause.
func (s *Service) compensated(ctx context.Context, cause *apperr.Error, compensations []compensation) error {
	var failed []string
	for i := len(compensations) - 1; i >= 0; i-- {
		c := compensations[i]
		if err := c.run(ctx); err != nil {
			s.log.CompensationFailed(c.step, err)
			failed = append(failed, c.step)
		}
	}
	if len(failed) > 0 {
		return cause.WithDetails(map[string]any{"failed_compensations": failed})
	}
	return cause
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return apperr.Validation("email and password are required")
	}
	if err := validator.ValidateEmail(email); err != nil {
		return apperr.Validation(err.Error()).WithDetails(validator.EmailRequirement)
	}
	if err := validator.ValidatePasswordStrength(password); err != nil {
		return apperr.Validation(err.Error()).WithDetails(validator.PasswordPolicy)
	}
	return nil
}

// emailDomain extracts the domain part of an address already validated by
// the email format check.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[at+1:]
}
