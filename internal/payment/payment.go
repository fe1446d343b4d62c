// internal/payment/payment.go
package payment

import (
	"context"
)

// ChargeRequest describes one renewal charge. Amount is in minor currency
// units, taken from the membership definition being renewed.
type ChargeRequest struct {
	UserID         string
	SubscriptionID string
	MembershipID   string
	Amount         int64
	Currency       string
	Description    string
}

// Charger is the opaque payment collaborator. A charge either succeeds or
// returns an error; callers must not assume retries happen underneath.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) error
}
