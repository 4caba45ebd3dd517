package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Repository owns inventory quantities and the restoration markers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Increment(ctx context.Context, productID uuid.UUID, qty int) error
	ClaimRestoration(ctx context.Context, restoration *models.StockRestoration) (bool, error)
	FindRestoration(ctx context.Context, orderID uuid.UUID, reason enums.StockRestoreReason) (*models.StockRestoration, error)
	Quantity(ctx context.Context, productID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Increment(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?
	`, qty, productID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"available_qty": gorm.Expr("inventory_items.available_qty + ?", qty)}),
		}).
		Create(&models.InventoryItem{ProductID: productID, AvailableQty: qty}).Error
}

// ClaimRestoration inserts the marker row and reports whether this caller
// won it. A second claim for the same (order, reason) returns false.
func (r *repository) ClaimRestoration(ctx context.Context, restoration *models.StockRestoration) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "reason"}},
			DoNothing: true,
		}).
		Create(restoration)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindRestoration(ctx context.Context, orderID uuid.UUID, reason enums.StockRestoreReason) (*models.StockRestoration, error) {
	var row models.StockRestoration
	err := r.db.WithContext(ctx).Where("order_id = ? AND reason = ?", orderID, reason).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Quantity(ctx context.Context, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.AvailableQty, nil
}
