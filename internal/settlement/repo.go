package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// PayoutRepository persists processor transfers toward sellers.
type PayoutRepository interface {
	WithTx(tx *gorm.DB) PayoutRepository
	LockByTransferID(ctx context.Context, transferID string) (*models.Payout, error)
	Create(ctx context.Context, payout *models.Payout) (bool, error)
	Save(ctx context.Context, payout *models.Payout) error
}

// AccountRepository persists the processor account mirror.
type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	FindByProcessorAccountID(ctx context.Context, accountID string) (*models.SellerAccount, error)
	Upsert(ctx context.Context, account *models.SellerAccount) error
}

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &payoutRepository{db: tx}
}

// LockByTransferID returns nil, nil when no payout tracks the transfer.
func (r *payoutRepository) LockByTransferID(ctx context.Context, transferID string) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transfer_id = ?", transferID).
		First(&payout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// Create reports false when another writer already recorded the transfer.
func (r *payoutRepository) Create(ctx context.Context, payout *models.Payout) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transfer_id"}}, DoNothing: true}).
		Create(payout)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *payoutRepository) Save(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Save(payout).Error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	if tx == nil {
		return r
	}
	return &accountRepository{db: tx}
}

// FindByProcessorAccountID returns nil, nil for unknown accounts.
func (r *accountRepository) FindByProcessorAccountID(ctx context.Context, accountID string) (*models.SellerAccount, error) {
	var account models.SellerAccount
	err := r.db.WithContext(ctx).Where("processor_account_id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Upsert(ctx context.Context, account *models.SellerAccount) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"processor_account_id",
				"charges_enabled",
				"payouts_enabled",
				"onboarding_complete",
				"verification_status",
				"requirements",
				"updated_at",
			}),
		}).
		Create(account).Error
}

func sellerFromAccount(ctx context.Context, repo AccountRepository, accountID string) (uuid.UUID, error) {
	if accountID == "" {
		return uuid.Nil, nil
	}
	account, err := repo.FindByProcessorAccountID(ctx, accountID)
	if err != nil || account == nil {
		return uuid.Nil, err
	}
	return account.SellerID, nil
}
