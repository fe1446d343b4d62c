// internal/domain/product/entity.go
package product

import (
	"time"
)

// Product is a catalog item. Products are managed by the shop back-office;
// this service only reads them to resolve membership grants.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
