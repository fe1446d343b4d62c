// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"errors"
	"net/http"

	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/pkg/response"
	"membership-service/internal/service/renewal"
	ledger "membership-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	ledgerService  *ledger.LedgerService
	renewalService *renewal.RenewalService
}

func NewSubscriptionHandler(ledgerService *ledger.LedgerService, renewalService *renewal.RenewalService) *SubscriptionHandler {
	return &SubscriptionHandler{
		ledgerService:  ledgerService,
		renewalService: renewalService,
	}
}

// TriggerRenewal runs the renewal sweep, or renews a single subscription
// when the body names one. An empty body is the scheduled-sweep case.
func (h *SubscriptionHandler) TriggerRenewal(c *gin.Context) {
	var req subscription.RenewSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	if req.SubscriptionID != "" {
		h.renewOne(c, req.SubscriptionID)
		return
	}

	result, err := h.renewalService.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "renewal sweep failed", err)
		return
	}

	response.Success(c, http.StatusOK, "renewal sweep completed", result)
}

func (h *SubscriptionHandler) renewOne(c *gin.Context, id string) {
	result, err := h.renewalService.RenewOne(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.Error(c, http.StatusNotFound, "subscription not found", err)
		case errors.Is(err, xerrors.ErrInvalidState),
			errors.Is(err, xerrors.ErrInvalidInput),
			errors.Is(err, xerrors.ErrExternal),
			errors.Is(err, xerrors.ErrConflict):
			response.Error(c, http.StatusBadRequest, "failed to renew subscription", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to renew subscription", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "subscription renewed successfully", result)
}

// GetSubscription retrieves a subscription by ID
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	result, err := h.ledgerService.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "subscription not found", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", result)
}

// ListSubscriptions retrieves all subscription rows of a user
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	result, err := h.ledgerService.ListSubscriptionsForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

// CancelSubscription cancels an active subscription
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	var req subscription.CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	result, err := h.ledgerService.CancelSubscription(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.Error(c, http.StatusNotFound, "subscription not found", err)
		case errors.Is(err, xerrors.ErrInvalidState):
			response.Error(c, http.StatusBadRequest, "failed to cancel subscription", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to cancel subscription", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "subscription cancelled successfully", result)
}
