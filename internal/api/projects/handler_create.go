package projects

import (
	"errors"
	"net/http"
	"strings"

	domainprojects "agency-portal/internal/domain/projects"
	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createProjectRequest struct {
	ClientID         string  `json:"client_id" binding:"required,uuid"`
	Name             string  `json:"name" binding:"required,max=200"`
	Domain           *string `json:"domain"`
	MonthlyPrice     int64   `json:"monthly_price" binding:"gte=0"`
	Currency         string  `json:"currency" binding:"omitempty,len=3"`
	VercelProjectID  *string `json:"vercel_project_id"`
	AutoPauseEnabled bool    `json:"auto_pause_enabled"`
}

// CreateProject stores a project with a live site. A billed project also gets
// a Stripe product and its first monthly price.
func (h *Handler) CreateProject(c *gin.Context) {
	var body createProjectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project request"})
		return
	}

	ctx := c.Request.Context()
	clientID := uuid.MustParse(body.ClientID)
	client, err := h.directory.GetProfile(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load client"})
		return
	}
	if client == nil || client.IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	currency := strings.ToLower(body.Currency)
	if currency == "" {
		currency = stripeinfra.DefaultCurrency
	}
	p := &domainprojects.Project{
		ClientID:        client.ID,
		Name:            strings.TrimSpace(body.Name),
		Domain:          nonBlank(body.Domain),
		MonthlyPrice:    body.MonthlyPrice,
		Currency:        currency,
		VercelProjectID: nonBlank(body.VercelProjectID),
	}
	p.ID = uuid.New()

	var version *domainprojects.PriceVersion
	if p.IsBilled() {
		product, err := h.catalog.CreateProduct(ctx, p.Name, p.ID.String())
		if err != nil {
			h.log.Error().Err(err).Str("project_id", p.ID.String()).Msg("stripe product creation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe product"})
			return
		}
		price, err := h.catalog.CreateMonthlyPrice(ctx, product.ID, p.MonthlyPrice, p.Currency)
		if err != nil {
			h.log.Error().Err(err).Str("project_id", p.ID.String()).Msg("stripe price creation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe price"})
			return
		}
		p.StripeProductID = &product.ID
		p.StripePriceID = &price.ID
		version = &domainprojects.PriceVersion{
			Amount:        p.MonthlyPrice,
			Currency:      p.Currency,
			Interval:      stripeinfra.MonthlyInterval,
			StripePriceID: price.ID,
		}
	}

	if err := h.directory.CreateProject(ctx, p, body.AutoPauseEnabled, version); err != nil {
		h.log.Error().Err(err).Str("project_id", p.ID.String()).Msg("project insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	h.log.Info().
		Str("project_id", p.ID.String()).
		Str("client_id", client.ID.String()).
		Int64("monthly_price", p.MonthlyPrice).
		Msg("project created")
	c.JSON(http.StatusCreated, p)
}

type linkVercelRequest struct {
	VercelProjectID string `json:"vercel_project_id" binding:"max=100"`
}

// LinkVercelProject sets the deploy platform project. An empty id unlinks it.
func (h *Handler) LinkVercelProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}
	var body linkVercelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.directory.LinkVercelProject(c.Request.Context(), id, strings.TrimSpace(body.VercelProjectID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link Vercel project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "vercel_project_id": strings.TrimSpace(body.VercelProjectID)})
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
