// internal/domain/order/entity.go
package order

import (
	"time"
)

type OrderStatus string

const (
	StatusCompleted  OrderStatus = "completed"
	StatusProcessing OrderStatus = "processing"
	StatusOnHold     OrderStatus = "on-hold"
	StatusPending    OrderStatus = "pending"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
	StatusFailed     OrderStatus = "failed"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a purchase record created by the external checkout collaborator.
// It is mutated here in two places only: provisioning marks it completed,
// the archival batch sets isArchived. Orders are never deleted.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Status          OrderStatus `json:"status"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
	IsArchived      bool        `json:"isArchived,omitempty"` // absent means not archived
	Total           float64     `json:"total"`
	Items           []OrderItem `json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ArchiveResult struct {
	ArchivedCount int    `json:"archivedCount"`
	Message       string `json:"message"`
}
