package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Repository covers the cross-cutting reads and the moderation writes used by
// the admin console.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	OrderCountsByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	PendingWithdrawals(ctx context.Context) (count int64, cents int64, err error)
	BalanceTotals(ctx context.Context) (available, pending, withdrawn int64, err error)
	RevenueSince(ctx context.Context, since time.Time) (RevenueTotals, error)
	LockApplication(ctx context.Context, id uuid.UUID) (*models.SellerApplication, error)
	SaveApplication(ctx context.Context, app *models.SellerApplication) error
	PromoteToSeller(ctx context.Context, userID uuid.UUID) error
	LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	LockUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	OrderCounts(ctx context.Context, userID uuid.UUID) (asBuyer, asSeller int64, err error)
}

// RevenueTotals aggregates paid orders in a period.
type RevenueTotals struct {
	OrderCount       int64
	GrossCents       int64
	PlatformFeeCents int64
	RefundedCents    int64
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

func (r *repository) OrderCountsByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *repository) PendingWithdrawals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Count int64
		Cents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS cents").
		Where("status = ?", enums.WithdrawalStatusPending).
		Scan(&row).Error
	return row.Count, row.Cents, err
}

func (r *repository) BalanceTotals(ctx context.Context) (int64, int64, int64, error) {
	var row struct {
		Available int64
		Pending   int64
		Withdrawn int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SellerBalance{}).
		Select("COALESCE(SUM(available_cents), 0) AS available, COALESCE(SUM(pending_cents), 0) AS pending, COALESCE(SUM(withdrawn_cents), 0) AS withdrawn").
		Scan(&row).Error
	return row.Available, row.Pending, row.Withdrawn, err
}

func (r *repository) RevenueSince(ctx context.Context, since time.Time) (RevenueTotals, error) {
	var out RevenueTotals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS order_count,
			COALESCE(SUM(total_cents), 0) AS gross_cents,
			COALESCE(SUM(platform_fee_cents), 0) AS platform_fee_cents,
			COALESCE(SUM(refund_amount_cents), 0) AS refunded_cents`).
		Where("paid_at IS NOT NULL AND paid_at >= ?", since).
		Scan(&out).Error
	return out, err
}

func (r *repository) LockApplication(ctx context.Context, id uuid.UUID) (*models.SellerApplication, error) {
	var app models.SellerApplication
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) SaveApplication(ctx context.Context, app *models.SellerApplication) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *repository) PromoteToSeller(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", userID, enums.UserRoleBuyer).
		Update("role", enums.UserRoleSeller).Error
}

func (r *repository) LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repository) OrderCounts(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	var asBuyer, asSeller int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("buyer_id = ?", userID).Count(&asBuyer).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("seller_id = ?", userID).Count(&asSeller).Error; err != nil {
		return 0, 0, err
	}
	return asBuyer, asSeller, nil
}
