package reconcile

import (
	"time"

	"agency-portal/internal/domain/billing"
)

// Kind is the Stripe event type that discriminates the canonical events.
type Kind string

const (
	KindCheckoutCompleted    Kind = "checkout.session.completed"
	KindInvoiceCreated       Kind = "invoice.created"
	KindInvoicePaid          Kind = "invoice.paid"
	KindInvoicePaymentFailed Kind = "invoice.payment_failed"
	KindInvoiceOverdue       Kind = "invoice.overdue"
	KindSubscriptionUpdated  Kind = "customer.subscription.updated"
	KindSubscriptionDeleted  Kind = "customer.subscription.deleted"
)

type Envelope struct {
	EventID string `validate:"required"`
	Type    Kind   `validate:"required"`
	Created time.Time
}

func (e Envelope) Meta() Envelope { return e }
func (e Envelope) Kind() Kind     { return e.Type }

// Event is one of CheckoutCompleted, InvoiceEvent, SubscriptionChanged.
type Event interface {
	Kind() Kind
	Meta() Envelope
}

type CheckoutCompleted struct {
	Envelope
	SessionID      string `validate:"required"`
	CustomerID     string `validate:"required"`
	SubscriptionID string
	ProjectID      string
}

// InvoiceEvent covers invoice.created, invoice.paid, invoice.payment_failed
// and invoice.overdue; Type says which.
type InvoiceEvent struct {
	Envelope
	InvoiceID      string `validate:"required"`
	CustomerID     string `validate:"required"`
	SubscriptionID string

	// project id candidates in lookup order
	MetadataProjectID string
	ParentProjectID   string

	AmountDue   int64
	AmountPaid  int64
	Currency    string
	Status      string
	Number      *string
	Description *string
	HostedURL   *string
	PDFURL      *string
	DueDate     *time.Time
	PaidAt      *time.Time
}

func (e InvoiceEvent) InvoiceType() billing.InvoiceType {
	if e.SubscriptionID != "" {
		return billing.InvoiceSubscription
	}
	return billing.InvoiceOneTime
}

// SubscriptionChanged covers customer.subscription.updated and .deleted.
// Pointer fields are nil when the payload did not carry them.
type SubscriptionChanged struct {
	Envelope
	SubscriptionID string `validate:"required"`
	CustomerID     string
	Status         *billing.SubscriptionStatus
	PriceID        *string
	CancelAt       *time.Time
	CancelAtSet    bool
	Period         *billing.Period
}
