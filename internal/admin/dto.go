package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/internal/users"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Users                  users.CountsByRole          `json:"users"`
	OrdersByStatus         map[enums.OrderStatus]int64 `json:"orders_by_status"`
	OpenDisputes           int64                       `json:"open_disputes"`
	PendingWithdrawals     int64                       `json:"pending_withdrawals"`
	PendingWithdrawalTotal string                      `json:"pending_withdrawal_total"`
	SellerAvailableTotal   string                      `json:"seller_available_total"`
	SellerPendingTotal     string                      `json:"seller_pending_total"`
	SellerWithdrawnTotal   string                      `json:"seller_withdrawn_total"`
}

// RevenueReport summarizes platform income over a trailing window.
type RevenueReport struct {
	PeriodDays    int       `json:"period_days"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	OrderCount    int64     `json:"order_count"`
	Gross         string    `json:"gross"`
	PlatformFees  string    `json:"platform_fees"`
	Refunded      string    `json:"refunded"`
	NetRevenue    string    `json:"net_revenue"`
	TakeRatePct   string    `json:"take_rate_pct"`
	AvgOrderValue string    `json:"avg_order_value"`
}

// ReviewApplicationInput is an admin decision on a seller application.
type ReviewApplicationInput struct {
	ApplicationID uuid.UUID
	AdminID       uuid.UUID
	Decision      string
	Notes         string
}

// ModerateProductInput is an admin decision on a listing.
type ModerateProductInput struct {
	ProductID uuid.UUID
	AdminID   uuid.UUID
	Action    string
	Note      string
}

// SuspensionInput suspends or reinstates a user.
type SuspensionInput struct {
	UserID  uuid.UUID
	AdminID uuid.UUID
	Reason  string
}

// UserActivity is the admin view of one account.
type UserActivity struct {
	User           *models.User      `json:"user"`
	OrdersAsBuyer  int64             `json:"orders_as_buyer"`
	OrdersAsSeller int64             `json:"orders_as_seller"`
	Balance        *BalanceView      `json:"balance,omitempty"`
	RecentActions  []models.AuditLog `json:"recent_actions"`
	History        []models.AuditLog `json:"history"`
}

// BalanceView renders a seller balance in currency units.
type BalanceView struct {
	Available string `json:"available"`
	Pending   string `json:"pending"`
	Withdrawn string `json:"withdrawn"`
}
