package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// Totals sums the deltas recorded in the transaction log for one seller.
type Totals struct {
	NetCents       int64
	AvailableCents int64
	PendingCents   int64
	WithdrawnCents int64
	Count          int64
}

// Repository manages persistence for seller balances and their transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureBalance(ctx context.Context, sellerID uuid.UUID) error
	LockBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error)
	FindBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error)
	UpdateBalance(ctx context.Context, balance *models.SellerBalance, expectedVersion int64) (bool, error)
	FindTransactionByKey(ctx context.Context, key string) (*models.SellerTransaction, error)
	CreateTransaction(ctx context.Context, txn *models.SellerTransaction) error
	ListTransactions(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.SellerTransaction, error)
	SumTransactions(ctx context.Context, sellerID uuid.UUID) (Totals, error)
	ListSellerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) EnsureBalance(ctx context.Context, sellerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "seller_id"}}, DoNothing: true}).
		Create(&models.SellerBalance{SellerID: sellerID}).Error
}

func (r *repository) LockBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	var balance models.SellerBalance
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ?", sellerID).
		First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) FindBalance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	var balance models.SellerBalance
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpdateBalance writes the cached totals only if nobody bumped the version
// since they were read.
func (r *repository) UpdateBalance(ctx context.Context, balance *models.SellerBalance, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Where("seller_id = ? AND version = ?", balance.SellerID, expectedVersion).
		Updates(map[string]any{
			"available_cents": balance.AvailableCents,
			"pending_cents":   balance.PendingCents,
			"withdrawn_cents": balance.WithdrawnCents,
			"version":         expectedVersion + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	balance.Version = expectedVersion + 1
	return true, nil
}

func (r *repository) FindTransactionByKey(ctx context.Context, key string) (*models.SellerTransaction, error) {
	var txn models.SellerTransaction
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.SellerTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.SellerTransaction, error) {
	var rows []models.SellerTransaction
	q := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumTransactions(ctx context.Context, sellerID uuid.UUID) (Totals, error) {
	var totals Totals
	err := r.db.WithContext(ctx).
		Model(&models.SellerTransaction{}).
		Select(`COALESCE(SUM(net_cents), 0) AS net_cents,
			COALESCE(SUM(available_delta_cents), 0) AS available_cents,
			COALESCE(SUM(pending_delta_cents), 0) AS pending_cents,
			COALESCE(SUM(withdrawn_delta_cents), 0) AS withdrawn_cents,
			COUNT(*) AS count`).
		Where("seller_id = ?", sellerID).
		Scan(&totals).Error
	return totals, err
}

func (r *repository) ListSellerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&models.SellerBalance{}).Order("seller_id ASC")
	if after != uuid.Nil {
		q = q.Where("seller_id > ?", after)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("seller_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
