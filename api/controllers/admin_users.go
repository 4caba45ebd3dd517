package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	"github.com/angelmondragon/packfinderz-settlement/api/validators"
	"github.com/angelmondragon/packfinderz-settlement/internal/admin"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type suspensionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type suspensionFunc func(ctx context.Context, input admin.SuspensionInput) (*models.User, error)

// AdminSuspendUser suspends an account. A reason is required.
func AdminSuspendUser(svc AdminService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return suspensionHandler(nil, logg)
	}
	return suspensionHandler(svc.SuspendUser, logg)
}

func AdminUnsuspendUser(svc AdminService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return suspensionHandler(nil, logg)
	}
	return suspensionHandler(svc.UnsuspendUser, logg)
}

func suspensionHandler(apply suspensionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apply == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload suspensionRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		user, err := apply(r.Context(), admin.SuspensionInput{
			UserID:  userID,
			AdminID: adminID,
			Reason:  validators.SanitizeString(payload.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AdminUserActivity returns the account summary plus its recent audit trail.
func AdminUserActivity(svc AdminService, logg *logger.Logger) http.HandlerFunc {
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
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activity, err := svc.UserActivity(r.Context(), adminID, userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, activity)
	}
}
