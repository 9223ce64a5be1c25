package repository

import (
	"context"
	"testing"
	"time"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/billing"
	"agency-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertInvoiceNeverRegressesPaid(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	paidAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	paid := &billing.Invoice{
		StripeInvoiceID: "in_1",
		Amount:          4900,
		Currency:        "usd",
		Type:            billing.InvoiceSubscription,
		Status:          billing.InvoicePaid,
		Number:          testutil.StrPtr("INV-1"),
		PaidAt:          &paidAt,
	}
	require.NoError(t, repo.UpsertInvoice(ctx, paid))

	stale := &billing.Invoice{
		StripeInvoiceID: "in_1",
		Amount:          5000,
		Currency:        "usd",
		Type:            billing.InvoiceSubscription,
		Status:          billing.InvoiceOpen,
		HostedURL:       testutil.StrPtr("https://invoice.stripe.com/i/1"),
	}
	require.NoError(t, repo.UpsertInvoice(ctx, stale))

	got, err := repo.InvoiceByStripeID(ctx, "in_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, billing.InvoicePaid, got.Status)
	assert.Equal(t, int64(4900), got.Amount)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))
	require.NotNil(t, got.Number, "fields absent on the stale write are kept")
	assert.Equal(t, "INV-1", *got.Number)
	require.NotNil(t, got.HostedURL, "new descriptive fields are still merged")

	var count int64
	require.NoError(t, db.Model(&billing.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertInvoiceAdvancesStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertInvoice(ctx, &billing.Invoice{
		StripeInvoiceID: "in_2", Amount: 1000, Currency: "usd",
		Type: billing.InvoiceOneTime, Status: billing.InvoiceDraft,
	}))
	require.NoError(t, repo.UpsertInvoice(ctx, &billing.Invoice{
		StripeInvoiceID: "in_2", Amount: 1200, Currency: "usd",
		Type: billing.InvoiceOneTime, Status: billing.InvoiceOpen,
	}))

	got, err := repo.InvoiceByStripeID(ctx, "in_2")
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceOpen, got.Status)
	assert.Equal(t, int64(1200), got.Amount)
	assert.Nil(t, got.PaidAt)
}

func TestUpsertInvoiceReplayIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	first := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	for _, at := range []time.Time{first, second} {
		at := at
		require.NoError(t, repo.UpsertInvoice(ctx, &billing.Invoice{
			StripeInvoiceID: "in_3", Amount: 4900, Currency: "usd",
			Type: billing.InvoiceSubscription, Status: billing.InvoicePaid, PaidAt: &at,
		}))
	}

	got, err := repo.InvoiceByStripeID(ctx, "in_3")
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.True(t, first.Equal(*got.PaidAt), "paid_at keeps the first payment time")
}

func TestUpsertSubscriptionKeepsCanceledAndPeriodPair(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, db, client, "", access.SiteControl{IsLive: true})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	require.NoError(t, repo.UpsertSubscription(ctx, &billing.Subscription{
		StripeSubscriptionID: "sub_1", ProjectID: project.ID, ClientID: client.ID,
		Status: billing.SubscriptionActive, CurrentPeriodStart: &start, CurrentPeriodEnd: &end,
	}))

	canceled, err := repo.MarkSubscriptionCanceled(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, canceled)
	assert.Equal(t, billing.SubscriptionCanceled, canceled.Status)

	// a late checkout replay carries no period and an active status
	sub := &billing.Subscription{
		StripeSubscriptionID: "sub_1", ProjectID: project.ID, ClientID: client.ID,
		Status: billing.SubscriptionActive,
	}
	require.NoError(t, repo.UpsertSubscription(ctx, sub))

	assert.Equal(t, billing.SubscriptionCanceled, sub.Status)
	require.NotNil(t, sub.CurrentPeriodStart)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, start.Equal(*sub.CurrentPeriodStart))
	assert.True(t, end.Equal(*sub.CurrentPeriodEnd))
}

func TestPatchSubscriptionOnlyTouchesPresentFields(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, db, client, "", access.SiteControl{IsLive: true})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	require.NoError(t, repo.UpsertSubscription(ctx, &billing.Subscription{
		StripeSubscriptionID: "sub_1", ProjectID: project.ID, ClientID: client.ID,
		StripePriceID: testutil.StrPtr("price_old"), Status: billing.SubscriptionActive,
		CurrentPeriodStart: &start, CurrentPeriodEnd: &end,
	}))

	status := billing.SubscriptionPastDue
	found, err := repo.PatchSubscription(ctx, "sub_1", billing.SubscriptionPatch{Status: &status})
	require.NoError(t, err)
	assert.True(t, found)

	got, err := repo.SubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionPastDue, got.Status)
	require.NotNil(t, got.StripePriceID)
	assert.Equal(t, "price_old", *got.StripePriceID)
	require.NotNil(t, got.CurrentPeriodStart)
	assert.True(t, start.Equal(*got.CurrentPeriodStart))

	found, err = repo.PatchSubscription(ctx, "sub_missing", billing.SubscriptionPatch{Status: &status})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPatchSubscriptionCannotReviveCanceled(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := testutil.SeedClient(t, db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, db, client, "", access.SiteControl{IsLive: true})

	require.NoError(t, repo.UpsertSubscription(ctx, &billing.Subscription{
		StripeSubscriptionID: "sub_1", ProjectID: project.ID, ClientID: client.ID,
		Status: billing.SubscriptionCanceled,
	}))

	active := billing.SubscriptionActive
	_, err := repo.PatchSubscription(ctx, "sub_1", billing.SubscriptionPatch{Status: &active})
	require.NoError(t, err)

	got, err := repo.SubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionCanceled, got.Status)
}

func TestMarkSubscriptionCanceledUnknown(t *testing.T) {
	repo := NewLedgerRepository(testutil.NewDB(t))
	got, err := repo.MarkSubscriptionCanceled(context.Background(), "sub_nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}
