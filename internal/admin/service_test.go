package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/authz"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/users"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/dbtest"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	users   *users.Repository
	ledger  *ledger.Service
	adminID uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, models.All()...)
	logg := logger.Nop()
	ctx := context.Background()

	userRepo := users.NewRepository(conn)
	admin, err := userRepo.Create(ctx, users.CreateUserDTO{Email: "ops@example.com", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	gate, err := authz.NewGate(userRepo)
	require.NoError(t, err)
	auditSvc, err := audit.NewService(audit.NewRepository(conn), logg)
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{Repository: ledger.NewRepository(conn), Audit: auditSvc, Logger: logg})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		TxRunner:   db.Wrap(conn),
		Repository: NewRepository(conn),
		Users:      userRepo,
		Gate:       gate,
		Audit:      auditSvc,
		Balances:   ledgerSvc,
		Logger:     logg,
		Clock:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{db: conn, svc: svc, users: userRepo, ledger: ledgerSvc, adminID: admin.ID}
}

func (f fixture) user(t *testing.T, email string, role enums.UserRole) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), users.CreateUserDTO{Email: email, Role: role})
	require.NoError(t, err)
	return u
}

func (f fixture) paidOrder(t *testing.T, number string, buyer, seller uuid.UUID, total, fee int64, paidAt time.Time, status enums.OrderStatus) {
	t.Helper()
	order := &models.Order{
		OrderNumber:      number,
		BuyerID:          buyer,
		SellerID:         seller,
		TotalCents:       total,
		PlatformFeeCents: fee,
		Status:           status,
		PaidAt:           &paidAt,
	}
	require.NoError(t, f.db.Create(order).Error)
}

func TestAllOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserRoleBuyer)

	_, err := f.svc.PlatformStats(ctx, buyer.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.PlatformRevenue(ctx, buyer.ID, 30)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.SuspendUser(ctx, SuspensionInput{UserID: f.adminID, AdminID: buyer.ID, Reason: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Anomalies(ctx, uuid.Nil, 10)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestPlatformStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserRoleBuyer)
	seller := f.user(t, "seller@example.com", enums.UserRoleSeller)

	f.paidOrder(t, "ORD-1", buyer.ID, seller.ID, 10000, 1000, fixedNow, enums.OrderStatusPaid)
	f.paidOrder(t, "ORD-2", buyer.ID, seller.ID, 5000, 500, fixedNow, enums.OrderStatusDisputeOpened)
	require.NoError(t, f.db.Create(&models.WithdrawalRequest{
		SellerID: seller.ID, AmountCents: 2500, Method: enums.PayoutMethodBankTransfer, Status: enums.WithdrawalStatusPending,
	}).Error)
	_, err := f.ledger.Credit(ctx, f.db, enums.BalanceAvailable, 9000, ledger.Posting{
		SellerID: seller.ID, Type: enums.SellerTransactionPayout, GrossCents: 9000, IdempotencyKey: "seed:credit",
	})
	require.NoError(t, err)

	stats, err := f.svc.PlatformStats(ctx, f.adminID)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.OrdersByStatus[enums.OrderStatusPaid])
	require.EqualValues(t, 1, stats.OpenDisputes)
	require.EqualValues(t, 1, stats.PendingWithdrawals)
	require.Equal(t, "25.00", stats.PendingWithdrawalTotal)
	require.Equal(t, "90.00", stats.SellerAvailableTotal)
	require.Equal(t, "0.00", stats.SellerPendingTotal)
}

func TestPlatformRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserRoleBuyer)
	seller := f.user(t, "seller@example.com", enums.UserRoleSeller)

	f.paidOrder(t, "ORD-1", buyer.ID, seller.ID, 10000, 1000, fixedNow.AddDate(0, 0, -2), enums.OrderStatusCompleted)
	f.paidOrder(t, "ORD-2", buyer.ID, seller.ID, 20000, 2000, fixedNow.AddDate(0, 0, -5), enums.OrderStatusPaid)
	f.paidOrder(t, "ORD-OLD", buyer.ID, seller.ID, 99900, 9990, fixedNow.AddDate(0, 0, -90), enums.OrderStatusCompleted)

	report, err := f.svc.PlatformRevenue(ctx, f.adminID, 30)
	require.NoError(t, err)
	require.EqualValues(t, 2, report.OrderCount)
	require.Equal(t, "300.00", report.Gross)
	require.Equal(t, "30.00", report.PlatformFees)
	require.Equal(t, "10.00", report.TakeRatePct)
	require.Equal(t, "150.00", report.AvgOrderValue)

	_, err = f.svc.PlatformRevenue(ctx, f.adminID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReviewSellerApplicationPromotesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	applicant := f.user(t, "maker@example.com", enums.UserRoleBuyer)
	app := &models.SellerApplication{UserID: applicant.ID, BusinessName: "Maker Co", Status: enums.SellerApplicationPending}
	require.NoError(t, f.db.Create(app).Error)

	reviewed, err := f.svc.ReviewSellerApplication(ctx, ReviewApplicationInput{
		ApplicationID: app.ID, AdminID: f.adminID, Decision: "approve", Notes: "documents verified",
	})
	require.NoError(t, err)
	require.Equal(t, enums.SellerApplicationApproved, reviewed.Status)

	u, err := f.users.FindByID(ctx, applicant.ID)
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleSeller, u.Role)

	_, err = f.svc.ReviewSellerApplication(ctx, ReviewApplicationInput{ApplicationID: app.ID, AdminID: f.adminID, Decision: "reject"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	trail, err := f.svc.AuditTrail(ctx, f.adminID, string(enums.AuditTargetSellerApplication), app.ID.String(), 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, enums.AuditSellerApplication, trail[0].Action)
}

func TestModerateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", enums.UserRoleSeller)
	product := &models.Product{SellerID: seller.ID, Name: "Lamp", PriceCents: 4500, Status: enums.ProductStatusPendingReview}
	require.NoError(t, f.db.Create(product).Error)

	_, err := f.svc.ModerateProduct(ctx, ModerateProductInput{ProductID: product.ID, AdminID: f.adminID, Action: "archive"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := f.svc.ModerateProduct(ctx, ModerateProductInput{ProductID: product.ID, AdminID: f.adminID, Action: "approve"})
	require.NoError(t, err)
	require.Equal(t, enums.ProductStatusActive, got.Status)

	got, err = f.svc.ModerateProduct(ctx, ModerateProductInput{ProductID: product.ID, AdminID: f.adminID, Action: "remove", Note: "counterfeit"})
	require.NoError(t, err)
	require.Equal(t, enums.ProductStatusRemoved, got.Status)

	_, err = f.svc.ModerateProduct(ctx, ModerateProductInput{ProductID: product.ID, AdminID: f.adminID, Action: "approve"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	_, err = f.svc.ModerateProduct(ctx, ModerateProductInput{ProductID: uuid.New(), AdminID: f.adminID, Action: "approve"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSuspendAndUnsuspend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserRoleBuyer)

	_, err := f.svc.SuspendUser(ctx, SuspensionInput{UserID: f.adminID, AdminID: f.adminID, Reason: "oops"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SuspendUser(ctx, SuspensionInput{UserID: buyer.ID, AdminID: f.adminID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	suspended, err := f.svc.SuspendUser(ctx, SuspensionInput{UserID: buyer.ID, AdminID: f.adminID, Reason: "chargeback fraud"})
	require.NoError(t, err)
	require.Equal(t, enums.UserStatusSuspended, suspended.Status)
	require.NotNil(t, suspended.SuspendedAt)

	_, err = f.svc.SuspendUser(ctx, SuspensionInput{UserID: buyer.ID, AdminID: f.adminID, Reason: "again"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	restored, err := f.svc.UnsuspendUser(ctx, SuspensionInput{UserID: buyer.ID, AdminID: f.adminID})
	require.NoError(t, err)
	require.Equal(t, enums.UserStatusActive, restored.Status)
	require.Nil(t, restored.SuspensionReason)

	activity, err := f.svc.UserActivity(ctx, f.adminID, buyer.ID, 0)
	require.NoError(t, err)
	require.Len(t, activity.History, 2)
	require.Equal(t, enums.AuditUserSuspended, activity.History[0].Action)
	require.Equal(t, enums.AuditUserUnsuspended, activity.History[1].Action)
	require.Nil(t, activity.Balance)
}

func TestUserActivityForSeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserRoleBuyer)
	seller := f.user(t, "seller@example.com", enums.UserRoleSeller)
	f.paidOrder(t, "ORD-1", buyer.ID, seller.ID, 10000, 1000, fixedNow, enums.OrderStatusPaid)

	activity, err := f.svc.UserActivity(ctx, f.adminID, seller.ID, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, activity.OrdersAsBuyer)
	require.EqualValues(t, 1, activity.OrdersAsSeller)
	require.NotNil(t, activity.Balance)
	require.Equal(t, "0.00", activity.Balance.Available)

	_, err = f.svc.UserActivity(ctx, f.adminID, uuid.New(), 10)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDollars(t *testing.T) {
	require.Equal(t, "0.00", Dollars(0))
	require.Equal(t, "1234.05", Dollars(123405))
	require.Equal(t, "-0.50", Dollars(-50))
}
