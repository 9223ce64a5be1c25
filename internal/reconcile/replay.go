package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agency-portal/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

var ErrEventNotStored = errors.New("webhook event not stored")

type EventLog interface {
	Get(ctx context.Context, provider, providerEventID string) (*billing.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, processingErr error) error
}

// Replay re-runs a stored delivery through the engine and records the result
// on the stored row. It runs even when the event already succeeded.
func (e *Engine) Replay(ctx context.Context, events EventLog, eventID string) (*Outcome, error) {
	stored, err := events.Get(ctx, billing.ProviderStripe, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotStored, eventID)
	}

	var evt stripe.Event
	if err := json.Unmarshal(stored.Payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: stored payload for %s: %v", ErrInvalidPayload, eventID, err)
	}

	out, procErr := e.Process(ctx, evt)
	if err := events.MarkProcessed(ctx, stored.ID, procErr); err != nil {
		return out, fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return out, procErr
}
