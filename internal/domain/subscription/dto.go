// internal/domain/subscription/dto.go
package subscription

type RenewSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

type SubscriptionListResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Total         int            `json:"total"`
}
