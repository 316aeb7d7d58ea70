package enums

import "fmt"

// ReviewStatus is the moderation state of a product review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusFlagged  ReviewStatus = "flagged"
)

var validReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusApproved,
	ReviewStatusRejected,
	ReviewStatusFlagged,
}

// String implements fmt.Stringer.
func (v ReviewStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReviewStatus.
func (v ReviewStatus) IsValid() bool {
	for _, candidate := range validReviewStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReviewStatus converts raw input into a ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	for _, candidate := range validReviewStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review status %q", value)
}
