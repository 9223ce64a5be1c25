package stripe

import (
	"strings"

	"agency-portal/internal/domain/billing"
)

// NormalizeSubscriptionStatus folds Stripe's subscription statuses into the
// five the ledger stores.
func NormalizeSubscriptionStatus(s string) billing.SubscriptionStatus {
	switch strings.TrimSpace(s) {
	case "active":
		return billing.SubscriptionActive
	case "trialing":
		return billing.SubscriptionTrialing
	case "past_due", "unpaid":
		return billing.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return billing.SubscriptionCanceled
	default:
		return billing.SubscriptionIncomplete
	}
}

// NormalizeInvoiceStatus maps a Stripe invoice status to draft|open. Paid is
// only ever set from invoice.paid, never from a status string on another event.
func NormalizeInvoiceStatus(s string) billing.InvoiceStatus {
	if strings.TrimSpace(s) == "draft" {
		return billing.InvoiceDraft
	}
	return billing.InvoiceOpen
}
