package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxStripeBytes = 65536

// StripeWebhook verifies and applies Stripe subscription events. Failures
// to apply answer 500 so Stripe retries the delivery.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStripeBytes))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	event, err := h.billing.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Signature verification failed", err)
		return
	}

	if err := h.billing.HandleEvent(c.Request.Context(), event); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to process webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
