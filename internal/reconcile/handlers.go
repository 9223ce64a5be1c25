package reconcile

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/billing"
	stripeinfra "agency-portal/internal/infra/stripe"

	"github.com/google/uuid"
)

func (e *Engine) handleCheckoutCompleted(ctx context.Context, ev CheckoutCompleted, out *Outcome) error {
	profile, err := e.norm.ResolveProfile(ctx, ev.CustomerID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ignore(out, "no profile for customer")
	}
	if ev.SubscriptionID == "" {
		return ignore(out, "checkout session without subscription")
	}
	projectID, err := uuid.Parse(ev.ProjectID)
	if err != nil {
		e.log.Warn().Str("event_id", ev.EventID).Str("project_id", ev.ProjectID).Msg("checkout session without a valid project_id")
		return ignore(out, "checkout session without project_id")
	}
	project, err := e.projectOrNil(ctx, &projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return ignore(out, "unknown project")
	}

	remote, err := e.fetcher.GetSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}

	sub := &billing.Subscription{
		StripeSubscriptionID: ev.SubscriptionID,
		ProjectID:            project.ID,
		ClientID:             profile.ID,
		Status:               stripeinfra.NormalizeSubscriptionStatus(string(remote.Status)),
	}
	if price := firstItemPrice(remote); price != nil && price.ID != "" {
		priceID := price.ID
		sub.StripePriceID = &priceID
	}
	if remote.CancelAt > 0 {
		t := unixUTC(remote.CancelAt)
		sub.CancelAt = &t
	}
	if period := derivePeriod(factsFromStripe(remote), e.now()); period != nil {
		sub.CurrentPeriodStart = &period.Start
		sub.CurrentPeriodEnd = &period.End
	} else {
		e.log.Warn().Str("subscription_id", ev.SubscriptionID).Msg("no billing period could be derived; period left empty")
	}

	if err := e.ledger.UpsertSubscription(ctx, sub); err != nil {
		return err
	}

	return e.appendActivity(ctx, out, activity.SubscriptionCreated,
		"New subscription activated via Checkout",
		&profile.ID, &project.ID,
		map[string]any{"stripe_subscription_id": ev.SubscriptionID, "status": sub.Status})
}

func (e *Engine) handleInvoice(ctx context.Context, ev InvoiceEvent, out *Outcome) error {
	profile, projectID, err := e.norm.ResolveInvoice(ctx, ev)
	if err != nil {
		return err
	}
	if profile == nil && ev.Type == KindInvoiceCreated {
		return ignore(out, "no profile for customer")
	}
	project, err := e.projectOrNil(ctx, projectID)
	if err != nil {
		return err
	}

	clientID := attributeClient(profile, project)
	inv := &billing.Invoice{
		StripeInvoiceID: ev.InvoiceID,
		ClientID:        clientID,
		Amount:          ev.AmountDue,
		Currency:        ev.Currency,
		Type:            ev.InvoiceType(),
		Number:          ev.Number,
		Description:     ev.Description,
		DueDate:         ev.DueDate,
		HostedURL:       ev.HostedURL,
		PDFURL:          ev.PDFURL,
	}
	if project != nil {
		inv.ProjectID = &project.ID
	}
	if inv.Currency == "" {
		inv.Currency = stripeinfra.DefaultCurrency
	}

	switch ev.Type {
	case KindInvoiceCreated:
		inv.Status = stripeinfra.NormalizeInvoiceStatus(ev.Status)
	case KindInvoicePaid:
		inv.Status = billing.InvoicePaid
		inv.Amount = ev.AmountPaid
		paidAt := ev.Created
		if ev.PaidAt != nil {
			paidAt = *ev.PaidAt
		}
		if paidAt.IsZero() {
			paidAt = e.now()
		}
		inv.PaidAt = &paidAt
	default:
		inv.Status = billing.InvoiceOpen
	}

	amount := billing.FormatAmount(inv.Amount, inv.Currency)
	number := inv.DisplayNumber()

	if err := e.ledger.UpsertInvoice(ctx, inv); err != nil {
		return err
	}

	// inv now holds the stored row. A failure or overdue notice that arrives
	// after the invoice was paid is stale.
	if inv.Status == billing.InvoicePaid && ev.Type != KindInvoicePaid && ev.Type != KindInvoiceCreated {
		e.log.Info().Str("invoice_id", ev.InvoiceID).Str("type", string(ev.Type)).Msg("invoice already paid; stale notice ignored")
		return ignore(out, "invoice already paid")
	}

	meta := map[string]any{"stripe_invoice_id": ev.InvoiceID, "amount": amount}

	switch ev.Type {
	case KindInvoicePaid:
		// Redeliveries write the entry only if an earlier attempt failed before logging it.
		logged, err := e.journal.HasActivity(ctx, activity.InvoicePaid, "stripe_invoice_id", ev.InvoiceID)
		if err != nil {
			return err
		}
		if !logged {
			if err := e.appendActivity(ctx, out, activity.InvoicePaid,
				fmt.Sprintf("Invoice #%s paid (%s)", number, amount), clientID, inv.ProjectID, meta); err != nil {
				return err
			}
		}
		if project != nil {
			return e.applyAutoTransition(ctx, out, project.ID, access.AutoResume)
		}

	case KindInvoicePaymentFailed:
		if err := e.raiseAlert(ctx, out, activity.AlertPaymentFailed,
			fmt.Sprintf("Payment failed for invoice #%s (%s)", number, amount), clientID, inv.ProjectID); err != nil {
			return err
		}
		return e.appendActivity(ctx, out, activity.PaymentFailed,
			fmt.Sprintf("Payment failed for invoice #%s (%s)", number, amount), clientID, inv.ProjectID, meta)

	case KindInvoiceOverdue:
		if err := e.raiseAlert(ctx, out, activity.AlertInvoiceOverdue,
			fmt.Sprintf("Invoice #%s is overdue (%s)", number, amount), clientID, inv.ProjectID); err != nil {
			return err
		}
		if err := e.appendActivity(ctx, out, activity.InvoiceOverdue,
			fmt.Sprintf("Invoice #%s is overdue (%s)", number, amount), clientID, inv.ProjectID, meta); err != nil {
			return err
		}
		if project != nil {
			return e.applyAutoTransition(ctx, out, project.ID, access.AutoPause)
		}
	}

	if project == nil && ev.Type != KindInvoiceCreated {
		e.log.Info().Str("invoice_id", ev.InvoiceID).Msg("invoice has no local project; site controls untouched")
	}
	return nil
}

func (e *Engine) handleSubscriptionChanged(ctx context.Context, ev SubscriptionChanged, out *Outcome) error {
	if ev.Type == KindSubscriptionDeleted {
		sub, err := e.ledger.MarkSubscriptionCanceled(ctx, ev.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return ignore(out, "unknown subscription")
		}
		return e.appendActivity(ctx, out, activity.SubscriptionCanceled,
			"Subscription canceled", &sub.ClientID, &sub.ProjectID,
			map[string]any{"stripe_subscription_id": ev.SubscriptionID})
	}

	patch := billing.SubscriptionPatch{
		Status:        ev.Status,
		StripePriceID: ev.PriceID,
		Period:        ev.Period,
	}
	if ev.CancelAtSet {
		if ev.CancelAt != nil {
			patch.CancelAt = ev.CancelAt
		} else {
			patch.ClearCancelAt = true
		}
	}

	found, err := e.ledger.PatchSubscription(ctx, ev.SubscriptionID, patch)
	if err != nil {
		return err
	}
	if !found {
		return ignore(out, "unknown subscription")
	}
	return nil
}

func ignore(out *Outcome, reason string) error {
	out.drop(reason)
	return nil
}
