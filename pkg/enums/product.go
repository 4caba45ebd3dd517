package enums

import "fmt"

// ProductStatus reflects catalog moderation state.
type ProductStatus string

const (
	ProductStatusPendingReview ProductStatus = "pending_review"
	ProductStatusActive        ProductStatus = "active"
	ProductStatusRejected      ProductStatus = "rejected"
	ProductStatusRemoved       ProductStatus = "removed"
)

// ModerationAction is an admin verdict on a product listing.
type ModerationAction string

const (
	ModerationApprove ModerationAction = "approve"
	ModerationReject  ModerationAction = "reject"
	ModerationRemove  ModerationAction = "remove"
)

// ResultingStatus maps a moderation verdict onto the product status.
func (m ModerationAction) ResultingStatus() ProductStatus {
	switch m {
	case ModerationApprove:
		return ProductStatusActive
	case ModerationReject:
		return ProductStatusRejected
	default:
		return ProductStatusRemoved
	}
}

func ParseModerationAction(value string) (ModerationAction, error) {
	switch ModerationAction(value) {
	case ModerationApprove, ModerationReject, ModerationRemove:
		return ModerationAction(value), nil
	default:
		return "", fmt.Errorf("invalid moderation action %q", value)
	}
}
