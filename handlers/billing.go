package handlers

import (
	"errors"
	"io"
	"net/http"

	"lexconnect/services/billing"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
)

// maxWebhookBytes matches the payload ceiling Stripe documents.
const maxWebhookBytes = 65536

type BillingHandler struct {
	Service billing.BillingService
}

func (h *BillingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Plans())
}

// Checkout handles POST /api/billing/checkout {"planId": "..."}.
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req struct {
		PlanID string `json:"planId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.Service.Checkout(c.Request.Context(), accountID(c), req.PlanID)
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BillingHandler) Portal(c *gin.Context) {
	out, err := h.Service.Portal(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to open billing portal")
		return
	}
	c.JSON(http.StatusOK, out)
}

// Webhook handles POST /api/billing/webhook. It is unauthenticated; the
// Stripe-Signature header is the credential.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "Webhook payload too large", "")
		return
	}
	err = h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, billing.ErrBadSignature):
		utils.JSONError(c, http.StatusBadRequest, "Invalid signature", "")
	default:
		// Non-2xx makes Stripe retry.
		respondError(c, err, "Webhook processing failed")
	}
}
