package billing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agency-portal/internal/app/http/middleware"
	"agency-portal/internal/domain/activity"
	domainbilling "agency-portal/internal/domain/billing"
	stripeinfra "agency-portal/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type invoiceLineRequest struct {
	Description string `json:"description" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
}

type createInvoiceRequest struct {
	ClientID  string               `json:"client_id" binding:"required,uuid"`
	ProjectID string               `json:"project_id" binding:"omitempty,uuid"`
	Currency  string               `json:"currency" binding:"omitempty,len=3"`
	Items     []invoiceLineRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateInvoice sends a one-time invoice. The local invoice row is written
// when Stripe's invoice events arrive.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var body createInvoiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice request"})
		return
	}

	ctx := c.Request.Context()
	clientID := uuid.MustParse(body.ClientID)
	client, err := h.directory.GetProfile(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load client"})
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	if !client.HasBilling() {
		c.JSON(http.StatusConflict, gin.H{"error": "Client has no Stripe customer yet"})
		return
	}

	var projectID *uuid.UUID
	if body.ProjectID != "" {
		id := uuid.MustParse(body.ProjectID)
		project, err := h.directory.GetProject(ctx, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
			return
		}
		if project == nil || project.ClientID != client.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found for this client"})
			return
		}
		projectID = &project.ID
	}

	currency := strings.ToLower(body.Currency)
	if currency == "" {
		currency = stripeinfra.DefaultCurrency
	}
	lines := make([]stripeinfra.InvoiceLine, 0, len(body.Items))
	var total int64
	for _, item := range body.Items {
		lines = append(lines, stripeinfra.InvoiceLine{Description: item.Description, Amount: item.Amount})
		total += item.Amount
	}

	projectRef := ""
	if projectID != nil {
		projectRef = projectID.String()
	}
	inv, err := h.stripe.CreateOneTimeInvoice(ctx, *client.StripeCustomerID, projectRef, currency, lines)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", client.ID.String()).Msg("one-time invoice creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create invoice"})
		return
	}

	amount := domainbilling.FormatAmount(total, currency)
	meta, _ := json.Marshal(map[string]any{"stripe_invoice_id": inv.ID, "amount": amount})
	if err := h.journal.AppendActivity(ctx, &activity.Entry{
		ClientID:    &client.ID,
		ProjectID:   projectID,
		Action:      activity.InvoiceSent,
		Description: fmt.Sprintf("Invoice sent (%s)", amount),
		Metadata:    datatypes.JSON(meta),
	}); err != nil {
		h.log.Error().Err(err).Str("stripe_invoice_id", inv.ID).Msg("invoice sent but activity entry failed")
	}

	c.JSON(http.StatusCreated, gin.H{
		"stripe_invoice_id": inv.ID,
		"hosted_url":        inv.HostedInvoiceURL,
		"amount":            total,
		"currency":          currency,
	})
}

// ListMyInvoices returns the caller's invoices, newest first.
func (h *Handler) ListMyInvoices(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	invoices, err := h.ledger.ListInvoicesByClient(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}
	if invoices == nil {
		invoices = []domainbilling.Invoice{}
	}

	c.JSON(http.StatusOK, invoices)
}
