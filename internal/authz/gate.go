// Package authz holds the admin gate every privileged operation passes first.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

type adminLookup interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Gate answers whether a user may run privileged operations.
type Gate struct {
	admins adminLookup
}

func NewGate(admins adminLookup) (*Gate, error) {
	if admins == nil {
		return nil, errors.New("admin lookup required")
	}
	return &Gate{admins: admins}, nil
}

// VerifyAdmin returns FORBIDDEN unless userID is an active admin.
func (g *Gate) VerifyAdmin(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	ok, err := g.admins.IsAdmin(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify admin")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}
