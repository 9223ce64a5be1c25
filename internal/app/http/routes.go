package routes

import (
	adminapi "agency-portal/internal/api/admin"
	"agency-portal/internal/api/billing"
	projectsapi "agency-portal/internal/api/projects"
	stripewebhooks "agency-portal/internal/api/stripewebhook"
	"agency-portal/internal/api/users"
	"agency-portal/internal/app/http/middleware"
	"agency-portal/internal/domain/profiles"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Webhook  *stripewebhooks.Handler
	Billing  *billing.Handler
	Admin    *adminapi.Handler
	Projects *projectsapi.Handler
	Users    *users.Handler
	Profiles middleware.ProfileLookup
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	r.POST("/webhook", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret))
	auth.GET("/me", h.Users.GetCurrentUser)

	// Client portal
	portal := r.Group("/portal")
	portal.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(profiles.RoleClient))
	portal.GET("/projects", h.Projects.ListClientProjects)
	portal.GET("/invoices", h.Billing.ListMyInvoices)
	portal.GET("/subscriptions", h.Billing.ListMySubscriptions)
	portal.GET("/activity", h.Users.ListMyActivity)
	portal.POST("/billing-portal", middleware.RequireBillingLinked(h.Profiles), h.Billing.CreateBillingPortal)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(profiles.RoleAdmin))
	admin.GET("/clients", h.Admin.ListClients)
	admin.GET("/alerts", h.Admin.ListAlerts)
	admin.GET("/projects", h.Projects.ListClientProjects)
	admin.GET("/projects/:id/site-control", h.Admin.GetSiteControl)
	admin.GET("/projects/:id/activity", h.Admin.ListProjectActivity)
	admin.GET("/projects/:id/prices", h.Projects.ListPriceHistory)
	admin.GET("/vercel/projects", h.Admin.ListVercelProjects)

	writes := admin.Group("/")
	writes.Use(middleware.SanitizeAndCleanInputMiddleware())
	writes.POST("/alerts/:id/dismiss", h.Admin.DismissAlert)
	writes.POST("/clients/:id/billing", h.Billing.ProvisionClientBilling)
	writes.POST("/checkout-links", h.Billing.CreateCheckoutLink)
	writes.POST("/invoices", h.Billing.CreateInvoice)
	writes.POST("/subscriptions/:id/cancel", h.Billing.CancelSubscription)
	writes.POST("/projects", h.Projects.CreateProject)
	writes.PUT("/projects/:id/price", h.Projects.ChangePrice)
	writes.PUT("/projects/:id/vercel", h.Projects.LinkVercelProject)
	writes.PUT("/projects/:id/site-control", h.Admin.UpdateSiteControl)
}
