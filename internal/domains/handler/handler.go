package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"konduktv_backend/internal/domains/service"
	"konduktv_backend/internal/domains/transport"
	"konduktv_backend/platform/httpkit"
	"konduktv_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/domains", h.List)
	rg.POST("/domains", h.Create)
	rg.PATCH("/domains/:id", h.Update)
	rg.DELETE("/domains/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	domains, err := h.svc.ListDomains(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.DomainResponse, 0, len(domains))
	for _, d := range domains {
		out = append(out, transport.NewDomainResponse(d))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	domain, err := h.svc.CreateDomain(c.Request.Context(), id.UserID(), req.DomainName)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewDomainResponse(domain))
}

func (h *Handler) Update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	domainID, ok := h.domainID(c)
	if !ok {
		return
	}

	var req transport.UpdateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	domain, err := h.svc.UpdateDomain(c.Request.Context(), id.UserID(), domainID, req.DomainName, req.SubscriptionStatus)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewDomainResponse(domain))
}

func (h *Handler) Delete(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	domainID, ok := h.domainID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteDomain(c.Request.Context(), id.UserID(), domainID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: "Domain deleted successfully"})
}

func (h *Handler) domainID(c *gin.Context) (uuid.UUID, bool) {
	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid domain ID format", nil)
		return uuid.UUID{}, false
	}
	return domainID, true
}
