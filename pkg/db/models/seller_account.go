package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/packfinderz-settlement/pkg/db/types"
)

// SellerAccount mirrors the processor-side payout account capabilities.
// requirements is a text[] column in Postgres; see the migrations.
type SellerAccount struct {
	SellerID           uuid.UUID           `gorm:"column:seller_id;type:uuid;primaryKey"`
	ProcessorAccountID string              `gorm:"column:processor_account_id;type:text;not null;uniqueIndex"`
	ChargesEnabled     bool                `gorm:"column:charges_enabled;not null;default:false"`
	PayoutsEnabled     bool                `gorm:"column:payouts_enabled;not null;default:false"`
	OnboardingComplete bool                `gorm:"column:onboarding_complete;not null;default:false"`
	VerificationStatus string              `gorm:"column:verification_status;type:text;not null;default:'unverified'"`
	Requirements       dbtypes.StringArray `gorm:"column:requirements;type:text"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (SellerAccount) TableName() string { return "seller_accounts" }
