package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	"github.com/angelmondragon/packfinderz-settlement/api/validators"
	"github.com/angelmondragon/packfinderz-settlement/internal/admin"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

// AdminService is the admin console surface. Every call re-verifies the
// caller against the admin registry.
type AdminService interface {
	PlatformStats(ctx context.Context, adminID uuid.UUID) (*admin.PlatformStats, error)
	PlatformRevenue(ctx context.Context, adminID uuid.UUID, periodDays int) (*admin.RevenueReport, error)
	ReviewSellerApplication(ctx context.Context, input admin.ReviewApplicationInput) (*models.SellerApplication, error)
	ModerateProduct(ctx context.Context, input admin.ModerateProductInput) (*models.Product, error)
	SuspendUser(ctx context.Context, input admin.SuspensionInput) (*models.User, error)
	UnsuspendUser(ctx context.Context, input admin.SuspensionInput) (*models.User, error)
	UserActivity(ctx context.Context, adminID, userID uuid.UUID, limit int) (*admin.UserActivity, error)
	AuditTrail(ctx context.Context, adminID uuid.UUID, targetType, targetID string, limit int) ([]models.AuditLog, error)
	Anomalies(ctx context.Context, adminID uuid.UUID, limit int) ([]models.AuditLog, error)
}

func AdminPlatformStats(svc AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.PlatformStats(r.Context(), adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminPlatformRevenue reports revenue over the trailing ?days window
// (default 30).
func AdminPlatformRevenue(svc AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 30, 1, 366)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.PlatformRevenue(r.Context(), adminID, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
