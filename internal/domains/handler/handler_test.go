package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"konduktv_backend/internal/domains/repository"
	"konduktv_backend/internal/domains/service"
	"konduktv_backend/internal/domains/transport"
	"konduktv_backend/platform/httpkit"
	"konduktv_backend/platform/logger"
	"konduktv_backend/platform/validator"
)

type stubStore struct {
	domains    []repository.Domain
	membership repository.Membership
}

func (s *stubStore) CreateDomain(_ context.Context, domainName string, managerID uuid.UUID, subscriptionStatus string) (repository.Domain, error) {
	return repository.Domain{ID: uuid.New(), DomainName: domainName, ManagerID: managerID, SubscriptionStatus: subscriptionStatus}, nil
}

func (s *stubStore) GetDomain(_ context.Context, id uuid.UUID) (repository.Domain, error) {
	if len(s.domains) == 0 {
		return repository.Domain{}, repository.ErrNotFound
	}
	return s.domains[0], nil
}

func (s *stubStore) GetDomainByName(_ context.Context, _ string) (repository.Domain, error) {
	return repository.Domain{}, repository.ErrNotFound
}

func (s *stubStore) UpdateDomain(_ context.Context, id uuid.UUID, _, _ *string) (repository.Domain, error) {
	if len(s.domains) == 0 {
		return repository.Domain{}, repository.ErrNotFound
	}
	return s.domains[0], nil
}

func (s *stubStore) ListDomainsForUser(_ context.Context, _ uuid.UUID) ([]repository.Domain, error) {
	return s.domains, nil
}

func (s *stubStore) DeleteDomains(_ context.Context, ids []uuid.UUID, _ uuid.UUID) (int64, error) {
	return int64(len(ids)), nil
}

func (s *stubStore) CreateMembership(_ context.Context, _, _ uuid.UUID, _ string) error {
	return nil
}

func (s *stubStore) GetMembership(_ context.Context, _, _ uuid.UUID) (repository.Membership, error) {
	if s.membership.ID == uuid.Nil {
		return repository.Membership{}, repository.ErrNotFound
	}
	return s.membership, nil
}

func (s *stubStore) DeleteMembershipsByDomains(_ context.Context, domainIDs []uuid.UUID) (int64, error) {
	return int64(len(domainIDs)), nil
}

func newTestRouter(store *stubStore, authedAs uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(store, logger.New("development"))
	h := New(svc, validator.New())

	r := gin.New()
	rg := r.Group("/api/v1")
	if authedAs != uuid.Nil {
		rg.Use(func(c *gin.Context) {
			c.Set(httpkit.ContextUserIDKey, authedAs)
			c.Next()
		})
	}
	h.RegisterRoutes(rg)
	return r
}

func TestRoutesRequireSession(t *testing.T) {
	r := newTestRouter(&stubStore{}, uuid.Nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/domains", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListReturnsCallerDomains(t *testing.T) {
	userID := uuid.New()
	store := &stubStore{domains: []repository.Domain{
		{ID: uuid.New(), DomainName: "acme.com", ManagerID: userID, SubscriptionStatus: "trial"},
	}}
	r := newTestRouter(store, userID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/domains", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp []transport.DomainResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0].DomainName != "acme.com" {
		t.Fatalf("unexpected domains %+v", resp)
	}
}
