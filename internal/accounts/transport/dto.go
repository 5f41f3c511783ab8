package transport

import (
	"time"

	"github.com/google/uuid"

	"konduktv_backend/internal/accounts/domain"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Role string `json:"role" validate:"required,oneof=manager team_member"`
}

type SetRoleRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=manager team_member"`
}

type CleanupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProfileResponse(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type DomainResponse struct {
	ID                 uuid.UUID `json:"id"`
	DomainName         string    `json:"domain_name"`
	ManagerID          uuid.UUID `json:"manager_id"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func NewSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		RefreshToken: s.RefreshToken,
	}
}

func NewDomainResponse(t domain.Tenant) DomainResponse {
	return DomainResponse{
		ID:                 t.ID,
		DomainName:         t.DomainName,
		ManagerID:          t.ManagerID,
		SubscriptionStatus: t.SubscriptionStatus,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

type SignUpResponse struct {
	Message string          `json:"message"`
	User    ProfileResponse `json:"user"`
	Domain  DomainResponse  `json:"domain"`
	Session SessionResponse `json:"session"`
}

type SignInResponse struct {
	Message string           `json:"message"`
	User    ProfileResponse  `json:"user"`
	Domains []DomainResponse `json:"domains"`
	Session SessionResponse  `json:"session"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
