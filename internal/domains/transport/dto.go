package transport

import (
	"time"

	"github.com/google/uuid"

	"konduktv_backend/internal/domains/repository"
)

type CreateDomainRequest struct {
	DomainName string `json:"domain_name" validate:"required,min=1,max=255"`
}

// UpdateDomainRequest carries the updatable domain fields. Identity fields
// (id, manager_id, timestamps) are not accepted.
type UpdateDomainRequest struct {
	DomainName         *string `json:"domain_name" validate:"omitempty,min=1,max=255"`
	SubscriptionStatus *string `json:"subscription_status" validate:"omitempty,oneof=trial active cancelled"`
}

type DomainResponse struct {
	ID                 uuid.UUID `json:"id"`
	DomainName         string    `json:"domain_name"`
	ManagerID          uuid.UUID `json:"manager_id"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewDomainResponse(d repository.Domain) DomainResponse {
	return DomainResponse{
		ID:                 d.ID,
		DomainName:         d.DomainName,
		ManagerID:          d.ManagerID,
		SubscriptionStatus: d.SubscriptionStatus,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}
