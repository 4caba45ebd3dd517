package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Product is the minimal catalog record needed for moderation and stock.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID       uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Name           string              `gorm:"column:name;type:text;not null"`
	PriceCents     int64               `gorm:"column:price_cents;not null"`
	Status         enums.ProductStatus `gorm:"column:status;type:text;not null;default:'pending_review'"`
	ModerationNote *string             `gorm:"column:moderation_note;type:text"`
	ModeratedBy    *uuid.UUID          `gorm:"column:moderated_by;type:uuid"`
	ModeratedAt    *time.Time          `gorm:"column:moderated_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
