package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// User is a marketplace account. IsAdmin is the role flag checked by the
// admin gate alongside the admins registry.
type User struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email            string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName      string           `gorm:"column:display_name;type:text;not null;default:''"`
	Role             enums.UserRole   `gorm:"column:role;type:text;not null;default:'buyer'"`
	IsAdmin          bool             `gorm:"column:is_admin;not null;default:false"`
	Status           enums.UserStatus `gorm:"column:status;type:text;not null;default:'active'"`
	SuspendedAt      *time.Time       `gorm:"column:suspended_at"`
	SuspensionReason *string          `gorm:"column:suspension_reason;type:text"`
	LastLoginAt      *time.Time       `gorm:"column:last_login_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Admin is an entry in the admin registry.
type Admin struct {
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	GrantedBy *uuid.UUID `gorm:"column:granted_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Admin) TableName() string { return "admins" }

// SellerApplication is a user's request to sell on the marketplace.
type SellerApplication struct {
	ID           uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID                     `gorm:"column:user_id;type:uuid;not null;index"`
	BusinessName string                        `gorm:"column:business_name;type:text;not null"`
	Status       enums.SellerApplicationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ReviewedBy   *uuid.UUID                    `gorm:"column:reviewed_by;type:uuid"`
	ReviewNotes  *string                       `gorm:"column:review_notes;type:text"`
	ReviewedAt   *time.Time                    `gorm:"column:reviewed_at"`
	CreatedAt    time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (SellerApplication) TableName() string { return "seller_applications" }

func (a *SellerApplication) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
