package billing

import (
	"context"

	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
)

// StripeGateway is the subset of the Stripe client the billing routes use.
type StripeGateway interface {
	CreateCustomer(ctx context.Context, email, name, profileID string) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, projectID string) (*stripe.CheckoutSession, error)
	CreateOneTimeInvoice(ctx context.Context, customerID, projectID, currency string, lines []stripeinfra.InvoiceLine) (*stripe.Invoice, error)
	CreateBillingPortalSession(ctx context.Context, customerID string) (*stripe.BillingPortalSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// Handler serves the admin billing routes and the client portal's billing
// views. Ledger rows are only read here; they are written by the webhook.
type Handler struct {
	stripe    StripeGateway
	ledger    *repository.LedgerRepository
	directory *repository.DirectoryRepository
	journal   *repository.JournalRepository
	log       zerolog.Logger
}

func NewHandler(
	gateway StripeGateway,
	ledger *repository.LedgerRepository,
	directory *repository.DirectoryRepository,
	journal *repository.JournalRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		stripe:    gateway,
		ledger:    ledger,
		directory: directory,
		journal:   journal,
		log:       log,
	}
}
