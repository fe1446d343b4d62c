// internal/domain/subscription/entity.go
package subscription

import (
	"time"
)

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// Subscription is one grant of one membership to one user for a bounded time
// window. Every completed payment creates a fresh row; repeat purchases stack
// rather than extend, and rows are never physically deleted.
type Subscription struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	MembershipID string `json:"membershipId"`
	ProductID    string `json:"productId"`
	OrderID      string `json:"orderId,omitempty"` // payment reference of the granting purchase

	Status    SubscriptionStatus `json:"status"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`

	AutoRenew    bool `json:"autoRenew"`
	RenewalCount int  `json:"renewalCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsDue reports whether the subscription is eligible for a renewal sweep at
// the given instant. The boundary is inclusive: endDate == now is due.
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Status == StatusActive && !s.EndDate.After(now)
}

type SweepResult struct {
	Renewed int `json:"renewed"`
	Expired int `json:"expired"`
}
