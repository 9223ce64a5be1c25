package repository

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository stores invoices and subscriptions keyed by their Stripe ids.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func invoiceStatusRank(col string) string {
	return fmt.Sprintf("CASE %s WHEN '%s' THEN 2 WHEN '%s' THEN 1 ELSE 0 END", col, billing.InvoicePaid, billing.InvoiceOpen)
}

func keepExisting(table, col string) clause.Assignment {
	return clause.Assignment{
		Column: clause.Column{Name: col},
		Value:  gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, %s.%s)", col, table, col)),
	}
}

// UpsertInvoice inserts or merges an invoice. Status and amount only move
// forward along draft < open < paid, so a stale invoice.created delivered
// after invoice.paid leaves the paid row intact. paid_at keeps its first value.
func (r *LedgerRepository) UpsertInvoice(ctx context.Context, inv *billing.Invoice) error {
	advancing := invoiceStatusRank("excluded.status") + " >= " + invoiceStatusRank("invoices.status")

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "status"}, Value: gorm.Expr("CASE WHEN " + advancing + " THEN excluded.status ELSE invoices.status END")},
			{Column: clause.Column{Name: "amount"}, Value: gorm.Expr("CASE WHEN " + advancing + " THEN excluded.amount ELSE invoices.amount END")},
			{Column: clause.Column{Name: "paid_at"}, Value: gorm.Expr("COALESCE(invoices.paid_at, excluded.paid_at)")},
			{Column: clause.Column{Name: "currency"}, Value: gorm.Expr("COALESCE(NULLIF(excluded.currency, ''), invoices.currency)")},
			{Column: clause.Column{Name: "type"}, Value: gorm.Expr("excluded.type")},
			keepExisting("invoices", "project_id"),
			keepExisting("invoices", "client_id"),
			keepExisting("invoices", "number"),
			keepExisting("invoices", "description"),
			keepExisting("invoices", "due_date"),
			keepExisting("invoices", "hosted_url"),
			keepExisting("invoices", "pdf_url"),
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(inv).Error
	if err != nil {
		return fmt.Errorf("upsert invoice %s: %w", inv.StripeInvoiceID, err)
	}

	stored, err := r.InvoiceByStripeID(ctx, inv.StripeInvoiceID)
	if err != nil {
		return err
	}
	if stored != nil {
		*inv = *stored
	}
	return nil
}

func (r *LedgerRepository) InvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*billing.Invoice, error) {
	return firstOrNil[billing.Invoice](r.db.WithContext(ctx).Where("stripe_invoice_id = ?", stripeInvoiceID))
}

func (r *LedgerRepository) ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]billing.Invoice, error) {
	var out []billing.Invoice
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// UpsertSubscription writes the row created at checkout. A canceled row stays
// canceled, and the period is only replaced by a complete start/end pair.
func (r *LedgerRepository) UpsertSubscription(ctx context.Context, sub *billing.Subscription) error {
	pairPresent := "excluded.current_period_start IS NOT NULL AND excluded.current_period_end IS NOT NULL"

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "project_id"}, Value: gorm.Expr("excluded.project_id")},
			{Column: clause.Column{Name: "client_id"}, Value: gorm.Expr("excluded.client_id")},
			keepExisting("subscriptions", "stripe_price_id"),
			{Column: clause.Column{Name: "status"}, Value: gorm.Expr(fmt.Sprintf(
				"CASE WHEN subscriptions.status = '%s' THEN subscriptions.status ELSE excluded.status END", billing.SubscriptionCanceled))},
			{Column: clause.Column{Name: "current_period_start"}, Value: gorm.Expr(
				"CASE WHEN " + pairPresent + " THEN excluded.current_period_start ELSE subscriptions.current_period_start END")},
			{Column: clause.Column{Name: "current_period_end"}, Value: gorm.Expr(
				"CASE WHEN " + pairPresent + " THEN excluded.current_period_end ELSE subscriptions.current_period_end END")},
			{Column: clause.Column{Name: "cancel_at"}, Value: gorm.Expr("excluded.cancel_at")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.StripeSubscriptionID, err)
	}

	stored, err := r.SubscriptionByStripeID(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return err
	}
	if stored != nil {
		*sub = *stored
	}
	return nil
}

func (r *LedgerRepository) SubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error) {
	return firstOrNil[billing.Subscription](r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID))
}

// PatchSubscription applies only the fields present on patch. It returns false
// when no local row exists for the subscription.
func (r *LedgerRepository) PatchSubscription(ctx context.Context, stripeSubscriptionID string, patch billing.SubscriptionPatch) (bool, error) {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END",
			string(billing.SubscriptionCanceled), string(*patch.Status))
	}
	if patch.StripePriceID != nil {
		updates["stripe_price_id"] = *patch.StripePriceID
	}
	if patch.CancelAt != nil {
		updates["cancel_at"] = *patch.CancelAt
	} else if patch.ClearCancelAt {
		updates["cancel_at"] = nil
	}
	if patch.Period != nil {
		updates["current_period_start"] = patch.Period.Start
		updates["current_period_end"] = patch.Period.End
	}

	if len(updates) == 0 {
		existing, err := r.SubscriptionByStripeID(ctx, stripeSubscriptionID)
		return existing != nil, err
	}

	res := r.db.WithContext(ctx).
		Model(&billing.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("patch subscription %s: %w", stripeSubscriptionID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkSubscriptionCanceled sets the terminal status and returns the row, or
// nil when the subscription is unknown locally.
func (r *LedgerRepository) MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error) {
	res := r.db.WithContext(ctx).
		Model(&billing.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Update("status", string(billing.SubscriptionCanceled))
	if res.Error != nil {
		return nil, fmt.Errorf("cancel subscription %s: %w", stripeSubscriptionID, res.Error)
	}
	return r.SubscriptionByStripeID(ctx, stripeSubscriptionID)
}

func (r *LedgerRepository) ListSubscriptionsByClient(ctx context.Context, clientID uuid.UUID) ([]billing.Subscription, error) {
	var out []billing.Subscription
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// OpenSubscriptionsByProject returns every subscription of the project that
// has not been canceled.
func (r *LedgerRepository) OpenSubscriptionsByProject(ctx context.Context, projectID uuid.UUID) ([]billing.Subscription, error) {
	var out []billing.Subscription
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND status <> ?", projectID, string(billing.SubscriptionCanceled)).
		Find(&out).Error
	return out, err
}
