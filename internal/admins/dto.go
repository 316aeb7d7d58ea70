package admins

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminDTO is the public view of an operator account.
type AdminDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func FromModel(m *models.AdminUser) *AdminDTO {
	if m == nil {
		return nil
	}
	return &AdminDTO{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       *AdminDTO `json:"admin"`
}

// CreateInput seeds an operator. An empty Password generates a temporary one.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	// ResetExisting rotates the password of an existing account instead of failing.
	ResetExisting bool
}

type CreateResult struct {
	Admin *AdminDTO
	// TempPassword is set only when the password was generated.
	TempPassword string
	Reset        bool
}
