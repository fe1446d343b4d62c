// internal/handlers/order/order_handler.go
package order

import (
	"net/http"

	"membership-service/internal/pkg/response"
	"membership-service/internal/service/archival"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	archivalService *archival.ArchivalService
}

func NewOrderHandler(archivalService *archival.ArchivalService) *OrderHandler {
	return &OrderHandler{archivalService: archivalService}
}

// ArchiveOrders archives every completed, not-yet-archived order.
// Zero archived orders is a success with its own message.
func (h *OrderHandler) ArchiveOrders(c *gin.Context) {
	result, err := h.archivalService.ArchiveCompletedOrders(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to archive orders", err)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}
