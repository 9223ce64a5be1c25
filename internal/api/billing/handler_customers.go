package billing

import (
	"errors"
	"net/http"

	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProvisionClientBilling creates the Stripe customer for a client and links
// it to the profile. A profile that is already linked is left alone.
func (h *Handler) ProvisionClientBilling(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}

	ctx := c.Request.Context()
	profile, err := h.directory.GetProfile(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load client"})
		return
	}
	if profile == nil || profile.IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	if profile.HasBilling() {
		c.JSON(http.StatusOK, gin.H{"stripe_customer_id": *profile.StripeCustomerID, "created": false})
		return
	}

	name := profile.FullName
	if profile.CompanyName != nil && *profile.CompanyName != "" {
		name = *profile.CompanyName
	}
	cus, err := h.stripe.CreateCustomer(ctx, profile.Email, name, profile.ID.String())
	if err != nil {
		h.log.Error().Err(err).Str("client_id", clientID.String()).Msg("stripe customer creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe customer"})
		return
	}

	if err := h.directory.AttachStripeCustomer(ctx, profile.ID, cus.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "Client was linked concurrently"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stripe_customer_id": cus.ID, "created": true})
}
