package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-settlement/api/controllers"
	ordercontrollers "github.com/angelmondragon/packfinderz-settlement/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/packfinderz-settlement/api/controllers/webhooks"
	"github.com/angelmondragon/packfinderz-settlement/api/middleware"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	stripewebhook "github.com/angelmondragon/packfinderz-settlement/internal/webhooks/stripe"
	"github.com/angelmondragon/packfinderz-settlement/internal/withdrawals"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const webhookRateLimit = 600

// RedisClient is the slice of pkg/redis the HTTP layer needs for throttling,
// idempotent replays and readiness.
type RedisClient interface {
	middleware.IdempotencyStore
	middleware.RateLimiter
	Ping(ctx context.Context) error
}

type withdrawalService interface {
	ListPending(ctx context.Context, adminID uuid.UUID) ([]models.WithdrawalRequest, error)
	Process(ctx context.Context, input withdrawals.ProcessInput) (*withdrawals.ProcessResult, error)
}

// Params carries the services mounted by NewRouter. Redis is optional; with
// it unset rate limiting and idempotent replays are disabled.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         RedisClient
	Gatherer      prometheus.Gatherer
	Webhooks      *stripewebhook.Service
	Orders        ordercontrollers.FulfillmentService
	Balances      ordercontrollers.BalanceReader
	Withdrawals   withdrawalService
	Admin         controllers.AdminService
	Notifications notifications.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	var (
		limiter   middleware.RateLimiter
		idemStore middleware.IdempotencyStore
		readiness = []controllers.ReadinessCheck{{Name: "db", Pinger: p.DB}}
	)
	if p.Redis != nil {
		limiter, idemStore = p.Redis, p.Redis
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: p.Redis})
	}

	sellerPolicy := middleware.RateLimitPolicy{Name: "seller", Window: cfg.RateLimit.SellerWindow, Limit: cfg.RateLimit.SellerLimit}
	webhookPolicy := middleware.RateLimitPolicy{Name: "webhook", Window: time.Minute, Limit: webhookRateLimit}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(webhookPolicy, limiter, logg)).
			Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(p.Webhooks, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(sellerPolicy, limiter, logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(p.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			})

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleSeller))
				r.Get("/balance", ordercontrollers.SellerBalance(p.Balances, logg))
				r.Get("/transactions", ordercontrollers.SellerTransactions(p.Balances, logg))
				r.Post("/orders/{orderId}/ship", ordercontrollers.Ship(p.Orders, logg))
				r.Post("/orders/{orderId}/deliver", ordercontrollers.Deliver(p.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/stats", controllers.AdminPlatformStats(p.Admin, logg))
		r.Get("/revenue", controllers.AdminPlatformRevenue(p.Admin, logg))
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.AdminPendingWithdrawals(p.Withdrawals, logg))
			r.Post("/{withdrawalId}/process", controllers.AdminProcessWithdrawal(p.Withdrawals, logg))
		})
		r.Post("/applications/{applicationId}/review", controllers.AdminReviewSellerApplication(p.Admin, logg))
		r.Post("/products/{productId}/moderate", controllers.AdminModerateProduct(p.Admin, logg))
		r.Route("/users/{userId}", func(r chi.Router) {
			r.Post("/suspend", controllers.AdminSuspendUser(p.Admin, logg))
			r.Post("/unsuspend", controllers.AdminUnsuspendUser(p.Admin, logg))
			r.Get("/activity", controllers.AdminUserActivity(p.Admin, logg))
		})
		r.Route("/audit", func(r chi.Router) {
			r.Get("/", controllers.AdminAuditTrail(p.Admin, logg))
			r.Get("/anomalies", controllers.AdminAnomalies(p.Admin, logg))
		})
	})

	return r
}
