package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"konduktv_backend/internal/accounts/domain"
	"konduktv_backend/internal/accounts/service"
	"konduktv_backend/internal/accounts/transport"
	"konduktv_backend/platform/config"
	"konduktv_backend/platform/httpkit"
	"konduktv_backend/platform/ratelimit"
	"konduktv_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	counter ratelimit.Counter
	cfg     config.CleanupConfig
}

func New(svc *service.Service, val *validator.Validator, counter ratelimit.Counter, cfg config.CleanupConfig) *Handler {
	return &Handler{svc: svc, val: val, counter: counter, cfg: cfg}
}

// RegisterPublicRoutes mounts the auth endpoints on an unauthenticated group.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.SignUp)
	rg.POST("/auth/signin", h.SignIn)
	rg.DELETE("/auth/cleanup", h.Cleanup)
}

// RegisterProtectedRoutes mounts the profile and role endpoints behind the
// session middleware.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.GetProfile)
	rg.PATCH("/users", h.UpdateProfile)
	rg.DELETE("/users", h.DeleteAccount)
	rg.GET("/users/roles", h.ListUsers)
	rg.PUT("/users/roles", h.SetUserRole)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req transport.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.SignUpResponse{
		Message: "User created successfully",
		User:    transport.NewProfileResponse(result.User),
		Domain:  transport.NewDomainResponse(result.Domain),
		Session: transport.NewSessionResponse(result.Session),
	})
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpkit.Error(c, http.StatusBadRequest, "email and password are required", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	domains := make([]transport.DomainResponse, 0, len(result.Domains))
	for _, d := range result.Domains {
		domains = append(domains, transport.NewDomainResponse(d))
	}

	httpkit.OK(c, transport.SignInResponse{
		Message: "Sign in successful",
		User:    transport.NewProfileResponse(result.User),
		Domains: domains,
		Session: transport.NewSessionResponse(result.Session),
	})
}

// Cleanup is the test-account teardown. It is unauthenticated but guarded by
// a per-IP rate counter, an origin allow-list, and the test email domain
// restriction enforced by the service.
func (h *Handler) Cleanup(c *gin.Context) {
	// A broken counter fails closed rather than opening the route.
	count, err := h.counter.Increment(c.Request.Context(), "cleanup:"+c.ClientIP())
	if err != nil || count > int64(h.cfg.GetCleanupMaxRequests()) {
		httpkit.Error(c, http.StatusTooManyRequests, "too many requests, please try again later", nil)
		return
	}

	if !h.originAllowed(c.GetHeader("Origin")) {
		httpkit.Error(c, http.StatusForbidden, "unauthorized origin", nil)
		return
	}

	var req transport.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	message, err := h.svc.CleanupByEmail(c.Request.Context(), req.Email, h.cfg.GetCleanupEmailDomain())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: message})
}

func (h *Handler) GetProfile(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewProfileResponse(profile))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), id.UserID(), domain.Role(req.Role))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewProfileResponse(profile))
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), id.UserID()); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: "User and associated data deleted successfully"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	profiles, err := h.svc.ListUsers(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	users := make([]transport.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, transport.NewProfileResponse(p))
	}
	httpkit.OK(c, gin.H{"users": users})
}

func (h *Handler) SetUserRole(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	profile, err := h.svc.SetUserRole(c.Request.Context(), id.UserID(), req.UserID, domain.Role(req.Role))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"user": transport.NewProfileResponse(profile)})
}

func (h *Handler) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.GetCleanupAllowedOrigins() {
		if origin == allowed {
			return true
		}
	}
	return len(h.cfg.GetCleanupAllowedOrigins()) == 0
}
