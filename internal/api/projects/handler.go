package projects

import (
	"context"
	"net/http"

	"agency-portal/internal/app/http/middleware"
	domainprojects "agency-portal/internal/domain/projects"
	"agency-portal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
)

// PriceCatalog is the subset of the Stripe client used to price projects.
type PriceCatalog interface {
	CreateProduct(ctx context.Context, name, projectID string) (*stripe.Product, error)
	CreateMonthlyPrice(ctx context.Context, productID string, amount int64, currency string) (*stripe.Price, error)
	SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*stripe.Subscription, error)
}

type Handler struct {
	catalog   PriceCatalog
	directory *repository.DirectoryRepository
	ledger    *repository.LedgerRepository
	journal   *repository.JournalRepository
	log       zerolog.Logger
}

func NewHandler(
	catalog PriceCatalog,
	directory *repository.DirectoryRepository,
	ledger *repository.LedgerRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		directory: directory,
		ledger:    ledger,
		journal:   journal,
		log:       log,
	}
}

// ListClientProjects serves both the admin view (?client_id=) and the
// portal view, where the caller's own id is used.
func (h *Handler) ListClientProjects(c *gin.Context) {
	clientID, ok := middleware.CallerID(c)
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client_id"})
			return
		}
		clientID, ok = id, true
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.directory.ListProjectsByClient(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}
	if list == nil {
		list = []domainprojects.Project{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListPriceHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}

	versions, err := h.directory.ListPriceVersions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price history"})
		return
	}
	if versions == nil {
		versions = []domainprojects.PriceVersion{}
	}
	c.JSON(http.StatusOK, versions)
}
