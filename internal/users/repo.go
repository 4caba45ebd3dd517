package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsAdmin reports whether the user is in the admin registry or carries the
// admin role flag. Suspended users never qualify.
func (r *Repository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "role", "is_admin", "status").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Status == enums.UserStatusSuspended {
		return false, nil
	}
	if user.IsAdmin || user.Role == enums.UserRoleAdmin {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Admin{}).Where("user_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GrantAdmin adds the user to the admin registry.
func (r *Repository) GrantAdmin(ctx context.Context, userID uuid.UUID, grantedBy *uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.Admin{UserID: userID, GrantedBy: grantedBy}).Error
}

// SetStatus updates the suspension columns of a user.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus, reason *string, at *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            status,
			"suspension_reason": reason,
			"suspended_at":      at,
		}).Error
}

// CountByRole returns dashboard counts.
func (r *Repository) CountByRole(ctx context.Context) (CountsByRole, error) {
	var out CountsByRole
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	counts := []struct {
		dst   *int64
		where string
		args  []any
	}{
		{&out.Buyers, "role = ?", []any{enums.UserRoleBuyer}},
		{&out.Sellers, "role = ?", []any{enums.UserRoleSeller}},
		{&out.Admins, "role = ? OR is_admin = ?", []any{enums.UserRoleAdmin, true}},
		{&out.Suspended, "status = ?", []any{enums.UserStatusSuspended}},
	}
	for _, c := range counts {
		if err := r.db.WithContext(ctx).Model(&models.User{}).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return out, err
		}
	}
	return out, nil
}
