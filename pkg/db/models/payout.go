package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Payout tracks a processor transfer of funds toward a seller account.
type Payout struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID       *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	TransferID    *string            `gorm:"column:transfer_id;type:text;uniqueIndex"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	ReversedCents int64              `gorm:"column:reversed_cents;not null;default:0"`
	Currency      string             `gorm:"column:currency;type:text;not null;default:'usd'"`
	Status        enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	FailureReason *string            `gorm:"column:failure_reason;type:text"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payout) TableName() string { return "payouts" }

func (p *Payout) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// WithdrawalRequest is a seller's request to move available funds out.
type WithdrawalRequest struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents     int64                  `gorm:"column:amount_cents;not null"`
	Method          enums.PayoutMethod     `gorm:"column:method;type:text;not null"`
	Status          enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ProcessedBy     *uuid.UUID             `gorm:"column:processed_by;type:uuid"`
	ProcessedAt     *time.Time             `gorm:"column:processed_at"`
	RejectionReason *string                `gorm:"column:rejection_reason;type:text"`
	PayoutReference *string                `gorm:"column:payout_reference;type:text;uniqueIndex"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }

func (w *WithdrawalRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
