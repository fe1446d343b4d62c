// internal/domain/membership/dto.go
package membership

type CreateMembershipRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Duration    int      `json:"duration" binding:"required,min=1"`
	Price       int64    `json:"price" binding:"min=0"`
	Currency    string   `json:"currency"`
	Features    []string `json:"features"`
	ProductIDs  []string `json:"productIds"`
	IsActive    *bool    `json:"isActive"`
}

type UpdateMembershipRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Features    []string `json:"features"`

	// Rejected once the membership is referenced by subscriptions.
	Duration   *int     `json:"duration"`
	ProductIDs []string `json:"productIds"`
}
