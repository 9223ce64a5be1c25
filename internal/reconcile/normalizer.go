package reconcile

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/profiles"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Normalizer resolves provider identifiers to local rows. It never writes.
type Normalizer struct {
	ledger    Ledger
	directory Directory
	log       zerolog.Logger
}

func NewNormalizer(ledger Ledger, directory Directory, log zerolog.Logger) *Normalizer {
	return &Normalizer{ledger: ledger, directory: directory, log: log}
}

// ResolveProfile returns nil, nil when no profile carries the customer id.
func (n *Normalizer) ResolveProfile(ctx context.Context, customerID string) (*profiles.Profile, error) {
	if customerID == "" {
		return nil, nil
	}
	p, err := n.directory.ProfileByStripeCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve profile for customer %s: %w", customerID, err)
	}
	if p == nil {
		n.log.Warn().Str("customer_id", customerID).Msg("no profile for stripe customer")
	}
	return p, nil
}

// ResolveInvoice returns the paying profile and the invoice's project. The
// project id is looked up from the invoice metadata, then the subscription
// metadata snapshot carried on the invoice, then the locally stored
// subscription. Either result may be nil.
func (n *Normalizer) ResolveInvoice(ctx context.Context, ev InvoiceEvent) (*profiles.Profile, *uuid.UUID, error) {
	profile, err := n.ResolveProfile(ctx, ev.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	for _, candidate := range []string{ev.MetadataProjectID, ev.ParentProjectID} {
		if id := n.parseProjectID(ev.InvoiceID, candidate); id != nil {
			return profile, id, nil
		}
	}

	if ev.SubscriptionID == "" {
		return profile, nil, nil
	}
	sub, err := n.ledger.SubscriptionByStripeID(ctx, ev.SubscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve project for subscription %s: %w", ev.SubscriptionID, err)
	}
	if sub == nil {
		return profile, nil, nil
	}
	id := sub.ProjectID
	return profile, &id, nil
}

func (n *Normalizer) parseProjectID(invoiceID, raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		n.log.Warn().Str("invoice_id", invoiceID).Str("project_id", raw).Msg("ignoring non-uuid project_id in metadata")
		return nil
	}
	return &id
}
