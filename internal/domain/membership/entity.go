// internal/domain/membership/entity.go
package membership

import (
	"time"
)

// Membership is a benefit tier definition, unlockable by one or more products.
// Duration and product linkage are frozen once subscriptions reference the
// membership; name, description and features stay editable.
type Membership struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Duration    int      `json:"duration"` // days
	Price       int64    `json:"price"`    // minor currency units, charged on renewal
	Currency    string   `json:"currency"`
	Features    []string `json:"features,omitempty"`
	ProductIDs  []string `json:"productIds,omitempty"`
	IsActive    bool     `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GrantsProduct reports whether a purchase of the given product unlocks this membership.
func (m *Membership) GrantsProduct(productID string) bool {
	for _, id := range m.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
