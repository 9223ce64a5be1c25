package repository

import (
	"context"
	"errors"
	"testing"

	"agency-portal/internal/domain/billing"
	"agency-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEventLedger(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	event := &billing.WebhookEvent{
		Provider:        billing.ProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       "invoice.paid",
		Payload:         []byte(`{"id":"evt_1"}`),
	}
	created, stored, err := repo.CreateIfNotExists(ctx, event)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, stored.Succeeded())

	require.NoError(t, repo.MarkProcessed(ctx, stored.ID, errors.New("boom")))

	created, stored, err = repo.CreateIfNotExists(ctx, &billing.WebhookEvent{
		Provider: billing.ProviderStripe, ProviderEventID: "evt_1", EventType: "invoice.paid",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, stored.Succeeded(), "a failed attempt is not a success")
	assert.Equal(t, "boom", stored.ProcessingError)

	failed, err := repo.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	require.NoError(t, repo.MarkProcessed(ctx, stored.ID, nil))
	stored, err = repo.Get(ctx, billing.ProviderStripe, "evt_1")
	require.NoError(t, err)
	assert.True(t, stored.Succeeded())

	failed, err = repo.ListFailed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, failed)
}
