package projects

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agency-portal/internal/domain/activity"
	domainbilling "agency-portal/internal/domain/billing"
	domainprojects "agency-portal/internal/domain/projects"
	stripeinfra "agency-portal/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type changePriceRequest struct {
	MonthlyPrice int64  `json:"monthly_price" binding:"required,gt=0"`
	Currency     string `json:"currency" binding:"omitempty,len=3"`
}

// ChangePrice creates a new Stripe price, records it as the project's current
// price version and moves open subscriptions onto it with prorations. Swap
// failures are reported per subscription; the new price stays recorded.
func (h *Handler) ChangePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}
	var body changePriceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthly_price must be a positive amount in minor units"})
		return
	}

	ctx := c.Request.Context()
	project, err := h.directory.GetProject(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	currency := strings.ToLower(body.Currency)
	if currency == "" {
		currency = project.Currency
	}
	if currency == "" {
		currency = stripeinfra.DefaultCurrency
	}
	logger := h.log.With().Str("project_id", project.ID.String()).Logger()

	productID := ""
	if project.StripeProductID != nil {
		productID = *project.StripeProductID
	}
	if productID == "" {
		product, err := h.catalog.CreateProduct(ctx, project.Name, project.ID.String())
		if err != nil {
			logger.Error().Err(err).Msg("stripe product creation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe product"})
			return
		}
		productID = product.ID
	}

	price, err := h.catalog.CreateMonthlyPrice(ctx, productID, body.MonthlyPrice, currency)
	if err != nil {
		logger.Error().Err(err).Msg("stripe price creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe price"})
		return
	}

	version := &domainprojects.PriceVersion{
		Amount:        body.MonthlyPrice,
		Currency:      currency,
		Interval:      stripeinfra.MonthlyInterval,
		StripePriceID: price.ID,
	}
	if err := h.directory.RecordPriceVersion(ctx, project.ID, productID, version); err != nil {
		logger.Error().Err(err).Str("stripe_price_id", price.ID).Msg("recording price version failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record price"})
		return
	}

	open, err := h.ledger.OpenSubscriptionsByProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}
	swapped, failed := []string{}, []string{}
	for _, sub := range open {
		if _, err := h.catalog.SwapSubscriptionPrice(ctx, sub.StripeSubscriptionID, price.ID); err != nil {
			logger.Error().Err(err).Str("subscription_id", sub.StripeSubscriptionID).Msg("subscription price swap failed")
			failed = append(failed, sub.StripeSubscriptionID)
			continue
		}
		swapped = append(swapped, sub.StripeSubscriptionID)
	}

	oldAmount := domainbilling.FormatAmount(project.MonthlyPrice, project.Currency)
	newAmount := domainbilling.FormatAmount(body.MonthlyPrice, currency)
	meta, _ := json.Marshal(map[string]any{
		"stripe_price_id":        price.ID,
		"swapped_subscriptions":  swapped,
		"failed_subscriptions":   failed,
		"previous_monthly_price": project.MonthlyPrice,
	})
	if err := h.journal.AppendActivity(ctx, &activity.Entry{
		ClientID:    &project.ClientID,
		ProjectID:   &project.ID,
		Action:      activity.PriceChanged,
		Description: fmt.Sprintf("Monthly price changed from %s to %s", oldAmount, newAmount),
		Metadata:    datatypes.JSON(meta),
	}); err != nil {
		logger.Error().Err(err).Msg("price changed but activity entry failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"price_version":         version,
		"swapped_subscriptions": swapped,
		"failed_subscriptions":  failed,
	})
}
