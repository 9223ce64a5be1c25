package billing

import (
	"net/http"

	"agency-portal/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type checkoutLinkRequest struct {
	ProjectID string `json:"project_id" binding:"required,uuid"`
}

// CreateCheckoutLink returns a subscription Checkout URL for a billed project.
// The admin sends it to the client; completion arrives via webhook.
func (h *Handler) CreateCheckoutLink(c *gin.Context) {
	var body checkoutLinkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid project_id"})
		return
	}
	projectID := uuid.MustParse(body.ProjectID)

	ctx := c.Request.Context()
	project, err := h.directory.GetProject(ctx, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if !project.IsBilled() || project.StripePriceID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Project has no monthly price"})
		return
	}

	open, err := h.ledger.OpenSubscriptionsByProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}
	if len(open) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Project already has a subscription"})
		return
	}

	client, err := h.directory.GetProfile(ctx, project.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load client"})
		return
	}
	if client == nil || !client.HasBilling() {
		c.JSON(http.StatusConflict, gin.H{"error": "Client has no Stripe customer yet"})
		return
	}

	s, err := h.stripe.CreateCheckoutSession(ctx, *client.StripeCustomerID, *project.StripePriceID, project.ID.String())
	if err != nil {
		h.log.Error().Err(err).Str("project_id", project.ID.String()).Msg("checkout session creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

// CreateBillingPortal returns a Stripe billing portal URL for the caller.
// Requires middleware.RequireBillingLinked.
func (h *Handler) CreateBillingPortal(c *gin.Context) {
	profile := middleware.LinkedProfile(c)
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	portal, err := h.stripe.CreateBillingPortalSession(c.Request.Context(), *profile.StripeCustomerID)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", profile.ID.String()).Msg("billing portal session creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not create billing portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": portal.URL})
}
