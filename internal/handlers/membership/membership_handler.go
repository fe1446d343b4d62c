// internal/handlers/membership/membership_handler.go
package membership

import (
	"errors"
	"net/http"

	"membership-service/internal/domain/membership"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/pkg/response"
	"membership-service/internal/service/catalog"
	"membership-service/internal/service/provisioning"

	"github.com/gin-gonic/gin"
)

type MembershipHandler struct {
	catalogService      *catalog.CatalogService
	provisioningService *provisioning.ProvisioningService
}

func NewMembershipHandler(catalogService *catalog.CatalogService, provisioningService *provisioning.ProvisioningService) *MembershipHandler {
	return &MembershipHandler{
		catalogService:      catalogService,
		provisioningService: provisioningService,
	}
}

// ActivateMembership provisions memberships after a completed payment.
// A product without membership linkage is still a success with zero grants.
func (h *MembershipHandler) ActivateMembership(c *gin.Context) {
	var req struct {
		ProductID       string `json:"productId" binding:"required"`
		UserID          string `json:"userId" binding:"required"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	granted, err := h.provisioningService.Provision(c.Request.Context(), req.ProductID, req.UserID, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "product not found", err)
			return
		}
		if errors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, "invalid request", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to activate membership", err)
		return
	}

	response.Success(c, http.StatusOK, "membership activation completed", gin.H{
		"success":       true,
		"subscriptions": granted,
	})
}

// GetMembership retrieves a membership definition by ID
func (h *MembershipHandler) GetMembership(c *gin.Context) {
	result, err := h.catalogService.GetMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "membership not found", err)
		return
	}

	response.Success(c, http.StatusOK, "membership retrieved", result)
}

// ListMemberships retrieves all membership definitions
func (h *MembershipHandler) ListMemberships(c *gin.Context) {
	result, err := h.catalogService.ListMemberships(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list memberships", err)
		return
	}

	response.Success(c, http.StatusOK, "memberships retrieved", result)
}

// ListMembershipsForProduct retrieves the active memberships a product unlocks
func (h *MembershipHandler) ListMembershipsForProduct(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		response.Error(c, http.StatusBadRequest, "product_id is required", nil)
		return
	}

	result, err := h.catalogService.ListMembershipsForProduct(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list memberships", err)
		return
	}

	response.Success(c, http.StatusOK, "memberships retrieved", result)
}

// CreateMembership creates a membership definition (admin)
func (h *MembershipHandler) CreateMembership(c *gin.Context) {
	var req membership.CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.catalogService.CreateMembership(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to create membership", err)
		return
	}

	response.Success(c, http.StatusCreated, "membership created successfully", result)
}

// UpdateMembership updates a membership definition (admin)
func (h *MembershipHandler) UpdateMembership(c *gin.Context) {
	var req membership.UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.catalogService.UpdateMembership(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "membership not found", err)
			return
		}
		response.Error(c, http.StatusBadRequest, "failed to update membership", err)
		return
	}

	response.Success(c, http.StatusOK, "membership updated successfully", result)
}

// ActivateCatalogEntry re-activates a membership definition (admin)
func (h *MembershipHandler) ActivateCatalogEntry(c *gin.Context) {
	h.setActive(c, true, "membership activated")
}

// DeactivateCatalogEntry deactivates a membership definition (admin)
func (h *MembershipHandler) DeactivateCatalogEntry(c *gin.Context) {
	h.setActive(c, false, "membership deactivated")
}

func (h *MembershipHandler) setActive(c *gin.Context, active bool, message string) {
	result, err := h.catalogService.SetMembershipActive(c.Request.Context(), c.Param("id"), active)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "membership not found", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to change membership status", err)
		return
	}

	response.Success(c, http.StatusOK, message, result)
}
