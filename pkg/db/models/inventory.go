package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// InventoryItem holds the sellable quantity of a product.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// StockRestoration marks that an order's stock was returned for a reason.
// (order_id, reason) is unique so a restore happens at most once.
type StockRestoration struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_stock_restorations_order_reason"`
	Reason    enums.StockRestoreReason `gorm:"column:reason;type:text;not null;uniqueIndex:ux_stock_restorations_order_reason"`
	Items     []RestoredItem           `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
}

func (StockRestoration) TableName() string { return "stock_restorations" }

func (r *StockRestoration) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RestoredItem is one product quantity returned to inventory.
type RestoredItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
