package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
)

// CreateUserDTO carries the data needed to insert a user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
}

// ToModel maps the DTO into a GORM model.
func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         strings.TrimSpace(dto.Name),
		Email:        NormalizeEmail(dto.Email),
		PasswordHash: dto.PasswordHash,
	}
}

// UserDTO is the public shape of a user.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromModel converts a user model to its public shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
