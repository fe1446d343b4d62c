// internal/middleware/apikey_middleware.go
package middleware

import (
	"crypto/subtle"

	"membership-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware guards the admin-triggered batch endpoints. The key comes
// from configuration; requests without a matching x-api-key header get 401.
type APIKeyMiddleware struct {
	apiKey string
}

func NewAPIKeyMiddleware(apiKey string) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKey: apiKey}
}

func (m *APIKeyMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-api-key")
		if m.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
			response.Unauthorized(c, "invalid or missing API key")
			return
		}
		c.Next()
	}
}
