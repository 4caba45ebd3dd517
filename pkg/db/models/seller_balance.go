package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// SellerBalance caches the running totals for a seller. Version guards
// concurrent writers.
type SellerBalance struct {
	SellerID       uuid.UUID `gorm:"column:seller_id;type:uuid;primaryKey"`
	AvailableCents int64     `gorm:"column:available_cents;not null;default:0"`
	PendingCents   int64     `gorm:"column:pending_cents;not null;default:0"`
	WithdrawnCents int64     `gorm:"column:withdrawn_cents;not null;default:0"`
	Version        int64     `gorm:"column:version;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SellerBalance) TableName() string { return "seller_balances" }

// Field returns the current value of one of the balance columns.
func (b *SellerBalance) Field(field enums.BalanceField) int64 {
	switch field {
	case enums.BalanceAvailable:
		return b.AvailableCents
	case enums.BalancePending:
		return b.PendingCents
	case enums.BalanceWithdrawn:
		return b.WithdrawnCents
	default:
		return 0
	}
}

// Add applies delta to one of the balance columns.
func (b *SellerBalance) Add(field enums.BalanceField, delta int64) {
	switch field {
	case enums.BalanceAvailable:
		b.AvailableCents += delta
	case enums.BalancePending:
		b.PendingCents += delta
	case enums.BalanceWithdrawn:
		b.WithdrawnCents += delta
	}
}

// SellerTransaction is an append-only ledger entry. NetCents always equals
// AvailableDeltaCents + PendingDeltaCents.
type SellerTransaction struct {
	ID                  uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	SellerID            uuid.UUID                     `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID             *uuid.UUID                    `gorm:"column:order_id;type:uuid;index"`
	Type                enums.SellerTransactionType   `gorm:"column:type;type:text;not null"`
	GrossCents          int64                         `gorm:"column:gross_cents;not null;default:0"`
	CommissionCents     int64                         `gorm:"column:commission_cents;not null;default:0"`
	NetCents            int64                         `gorm:"column:net_cents;not null"`
	AvailableDeltaCents int64                         `gorm:"column:available_delta_cents;not null;default:0"`
	PendingDeltaCents   int64                         `gorm:"column:pending_delta_cents;not null;default:0"`
	WithdrawnDeltaCents int64                         `gorm:"column:withdrawn_delta_cents;not null;default:0"`
	FloorApplied        bool                          `gorm:"column:floor_applied;not null;default:false"`
	Status              enums.SellerTransactionStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	Description         string                        `gorm:"column:description;type:text;not null;default:''"`
	IdempotencyKey      string                        `gorm:"column:idempotency_key;type:text;not null;uniqueIndex"`
	CreatedAt           time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (SellerTransaction) TableName() string { return "seller_transactions" }

func (t *SellerTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
