package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/packfinderz-settlement/internal/admin"
	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/authz"
	"github.com/angelmondragon/packfinderz-settlement/internal/dedup"
	"github.com/angelmondragon/packfinderz-settlement/internal/inventory"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	"github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/internal/users"
	stripewebhook "github.com/angelmondragon/packfinderz-settlement/internal/webhooks/stripe"
	"github.com/angelmondragon/packfinderz-settlement/internal/withdrawals"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/redis"
	"github.com/angelmondragon/packfinderz-settlement/pkg/stripe"
)

type services struct {
	webhooks      *stripewebhook.Service
	orders        *orders.Service
	ledger        *ledger.Service
	withdrawals   *withdrawals.Service
	admin         *admin.Service
	notifications notifications.Service
}

func buildServices(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (*services, error) {
	conn := dbClient.DB()
	settlementMetrics := metrics.NewSettlementMetrics(reg)

	auditSvc, err := audit.NewService(audit.NewRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	userRepo := users.NewRepository(conn)
	gate, err := authz.NewGate(userRepo)
	if err != nil {
		return nil, fmt.Errorf("admin gate: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Repository: ledger.NewRepository(conn),
		Audit:      auditSvc,
		Logger:     logg,
		Metrics:    settlementMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	stock, err := inventory.NewService(inventory.NewRepository(conn), auditSvc)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		TxRunner:   dbClient,
		Audit:      auditSvc,
		Notifier:   notificationsSvc,
		Outbox:     outboxSvc,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		TxRunner: dbClient,
		Orders:   orders.NewRepository(conn),
		Payouts:  settlement.NewPayoutRepository(conn),
		Accounts: settlement.NewAccountRepository(conn),
		Ledger:   ledgerSvc,
		Stock:    stock,
		Audit:    auditSvc,
		Notifier: notificationsSvc,
		Outbox:   outboxSvc,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("settlement service: %w", err)
	}

	store, err := dedupStore(cfg.Dedup, redisClient)
	if err != nil {
		return nil, err
	}
	reconciler, err := settlement.NewReconciler(settlement.ReconcilerParams{
		Service: settlementSvc,
		Dedup:   store,
		Metrics: settlementMetrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("settlement reconciler: %w", err)
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return nil, fmt.Errorf("stripe client: %w", err)
	}
	verifier, err := stripewebhook.NewVerifier(stripeClient.SigningSecret(), 0)
	if err != nil {
		return nil, fmt.Errorf("stripe verifier: %w", err)
	}
	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Verifier:   verifier,
		Reconciler: reconciler,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook service: %w", err)
	}

	withdrawalsSvc, err := withdrawals.NewService(withdrawals.ServiceParams{
		TxRunner:   dbClient,
		Repository: withdrawals.NewRepository(conn),
		Gate:       gate,
		Ledger:     ledgerSvc,
		Audit:      auditSvc,
		Notifier:   notificationsSvc,
		Outbox:     outboxSvc,
		Metrics:    settlementMetrics,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("withdrawals service: %w", err)
	}

	adminSvc, err := admin.NewService(admin.ServiceParams{
		TxRunner:   dbClient,
		Repository: admin.NewRepository(conn),
		Users:      userRepo,
		Gate:       gate,
		Audit:      auditSvc,
		Balances:   ledgerSvc,
		Notifier:   notificationsSvc,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", err)
	}

	return &services{
		webhooks:      webhookSvc,
		orders:        ordersSvc,
		ledger:        ledgerSvc,
		withdrawals:   withdrawalsSvc,
		admin:         adminSvc,
		notifications: notificationsSvc,
	}, nil
}

// dedupStore picks the shared redis window when configured and falls back to
// the in-process store for single-instance deployments.
func dedupStore(cfg config.DedupConfig, redisClient *redis.Client) (dedup.Store, error) {
	if strings.EqualFold(cfg.Backend, config.DedupBackendRedis) {
		if redisClient == nil {
			return nil, fmt.Errorf("dedup backend %q requires redis", cfg.Backend)
		}
		return dedup.NewRedisStore(redisClient, "stripe", cfg.Window)
	}
	return dedup.NewMemoryStore(cfg.Window, cfg.HighWaterMark), nil
}
