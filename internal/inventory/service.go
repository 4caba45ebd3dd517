// Package inventory returns stock to products when orders are refunded or
// lost to a dispute.
package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

// Item is one product quantity to restore.
type Item struct {
	ProductID uuid.UUID
	Quantity  int
}

// ItemsFromOrder collects the line items of an order.
func ItemsFromOrder(order *models.Order) []Item {
	items := make([]Item, 0, len(order.Items))
	for _, li := range order.Items {
		items = append(items, Item{ProductID: li.ProductID, Quantity: li.Quantity})
	}
	return items
}

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) (*Service, error) {
	if repo == nil {
		return nil, errors.New("inventory repository required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder required")
	}
	return &Service{repo: repo, audit: recorder}, nil
}

// RestoreStock increments every product by its quantity at most once per
// (order, reason). It reports false when the restore already happened.
func (s *Service) RestoreStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []Item, reason enums.StockRestoreReason) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "stock restore requires a transaction")
	}
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !reason.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock restore reason")
	}

	merged := mergeItems(items)
	restored := make([]models.RestoredItem, 0, len(merged))
	for _, item := range merged {
		restored = append(restored, models.RestoredItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	repo := s.repo.WithTx(tx)
	claimed, err := repo.ClaimRestoration(ctx, &models.StockRestoration{OrderID: orderID, Reason: reason, Items: restored})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim stock restoration")
	}
	if !claimed {
		return false, nil
	}

	for _, item := range merged {
		if err := repo.Increment(ctx, item.ProductID, item.Quantity); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment inventory")
		}
	}

	if err := s.audit.Record(ctx, tx, audit.Entry{
		Action:     enums.AuditStockRestored,
		TargetType: enums.AuditTargetOrder,
		TargetID:   orderID.String(),
		Details:    map[string]any{"reason": reason, "items": restored},
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Quantity returns the available quantity of a product.
func (s *Service) Quantity(ctx context.Context, productID uuid.UUID) (int, error) {
	qty, err := s.repo.Quantity(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return qty, nil
}

// mergeItems sums quantities per product and drops non-positive lines,
// keeping first-seen order.
func mergeItems(items []Item) []Item {
	index := make(map[uuid.UUID]int, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
