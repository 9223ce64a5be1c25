package billing

import (
	"net/http"

	"agency-portal/internal/app/http/middleware"
	domainbilling "agency-portal/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListMySubscriptions(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	subs, err := h.ledger.ListSubscriptionsByClient(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}
	if subs == nil {
		subs = []domainbilling.Subscription{}
	}

	c.JSON(http.StatusOK, subs)
}

// CancelSubscription cancels at Stripe immediately. The local row turns
// canceled when customer.subscription.deleted is delivered.
func (h *Handler) CancelSubscription(c *gin.Context) {
	stripeID := c.Param("id")

	ctx := c.Request.Context()
	sub, err := h.ledger.SubscriptionByStripeID(ctx, stripeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if sub.Status.IsTerminal() {
		c.JSON(http.StatusOK, gin.H{"message": "Subscription already canceled"})
		return
	}

	if _, err := h.stripe.CancelSubscription(ctx, stripeID); err != nil {
		h.log.Error().Err(err).Str("subscription_id", stripeID).Msg("stripe cancel failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Cancellation requested", "subscription_id": stripeID})
}
