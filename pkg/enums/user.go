package enums

import (
	"fmt"
	"strings"
)

// UserRole is the coarse role carried on users and access tokens.
type UserRole string

const (
	UserRoleBuyer  UserRole = "buyer"
	UserRoleSeller UserRole = "seller"
	UserRoleAdmin  UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleSeller,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}

// UserStatus tracks account suspension.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// SellerApplicationStatus tracks a request to become a seller.
type SellerApplicationStatus string

const (
	SellerApplicationPending  SellerApplicationStatus = "pending"
	SellerApplicationApproved SellerApplicationStatus = "approved"
	SellerApplicationRejected SellerApplicationStatus = "rejected"
)

// ReviewDecision is an admin verdict on an application.
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

func ParseReviewDecision(value string) (ReviewDecision, error) {
	switch ReviewDecision(value) {
	case ReviewApprove, ReviewReject:
		return ReviewDecision(value), nil
	default:
		return "", fmt.Errorf("invalid review decision %q", value)
	}
}
