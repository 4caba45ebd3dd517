package users

import (
	"strings"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// CreateUserDTO carries the persisted fields for a new user.
type CreateUserDTO struct {
	Email       string
	DisplayName string
	Role        enums.UserRole
	IsAdmin     bool
}

// ToModel converts the DTO into a GORM model.
func (dto CreateUserDTO) ToModel() *models.User {
	role := dto.Role
	if role == "" {
		role = enums.UserRoleBuyer
	}
	return &models.User{
		Email:       strings.ToLower(strings.TrimSpace(dto.Email)),
		DisplayName: strings.TrimSpace(dto.DisplayName),
		Role:        role,
		IsAdmin:     dto.IsAdmin,
		Status:      enums.UserStatusActive,
	}
}

// CountsByRole is the user breakdown shown on the admin dashboard.
type CountsByRole struct {
	Total     int64
	Buyers    int64
	Sellers   int64
	Admins    int64
	Suspended int64
}
