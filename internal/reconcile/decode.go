package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripeinfra "agency-portal/internal/infra/stripe"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v75"
)

var (
	// ErrUnhandledEvent is returned for event types the engine does not consume.
	ErrUnhandledEvent = errors.New("unhandled stripe event type")
	// ErrInvalidPayload means the event body is not valid JSON for its type.
	ErrInvalidPayload = errors.New("invalid stripe event payload")
	// ErrMalformedEvent means the payload decoded but required ids are missing.
	ErrMalformedEvent = errors.New("malformed stripe event")
)

var validate = validator.New()

type decoder func(env Envelope, raw json.RawMessage) (Event, error)

var decoders = map[Kind]decoder{
	KindCheckoutCompleted:    decodeCheckoutCompleted,
	KindInvoiceCreated:       decodeInvoice,
	KindInvoicePaid:          decodeInvoice,
	KindInvoicePaymentFailed: decodeInvoice,
	KindInvoiceOverdue:       decodeInvoice,
	KindSubscriptionUpdated:  decodeSubscription,
	KindSubscriptionDeleted:  decodeSubscription,
}

// Handles reports whether the engine consumes events of type t.
func Handles(t string) bool {
	_, ok := decoders[Kind(t)]
	return ok
}

// Decode turns a verified Stripe event into its canonical record.
func Decode(evt stripe.Event) (Event, error) {
	kind := Kind(evt.Type)
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, evt.Type)
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: %s has no data.object", ErrInvalidPayload, evt.Type)
	}

	env := Envelope{EventID: evt.ID, Type: kind}
	if evt.Created > 0 {
		env.Created = time.Unix(evt.Created, 0).UTC()
	}

	out, err := dec(env, evt.Data.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, evt.Type, err)
	}
	if err := validate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, evt.Type, err)
	}
	return out, nil
}

func decodeCheckoutCompleted(env Envelope, raw json.RawMessage) (Event, error) {
	var p checkoutSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return CheckoutCompleted{
		Envelope:       env,
		SessionID:      p.ID,
		CustomerID:     p.Customer.ID,
		SubscriptionID: p.Subscription.ID,
		ProjectID:      strings.TrimSpace(p.Metadata["project_id"]),
	}, nil
}

func decodeInvoice(env Envelope, raw json.RawMessage) (Event, error) {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	ev := InvoiceEvent{
		Envelope:          env,
		InvoiceID:         p.ID,
		CustomerID:        p.Customer.ID,
		SubscriptionID:    p.Subscription.ID,
		MetadataProjectID: strings.TrimSpace(p.Metadata["project_id"]),
		AmountDue:         p.AmountDue,
		AmountPaid:        p.AmountPaid,
		Currency:          strings.ToLower(p.Currency),
		Status:            p.Status,
		Number:            nonEmpty(p.Number),
		Description:       nonEmpty(p.Description),
		HostedURL:         nonEmpty(p.HostedInvoiceURL),
		PDFURL:            nonEmpty(p.InvoicePDF),
		DueDate:           p.DueDate.Time(),
		PaidAt:            p.StatusTransitions.PaidAt.Time(),
	}

	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		details := p.Parent.SubscriptionDetails
		if ev.SubscriptionID == "" {
			ev.SubscriptionID = details.Subscription.ID
		}
		ev.ParentProjectID = strings.TrimSpace(details.Metadata["project_id"])
	}
	return ev, nil
}

func decodeSubscription(env Envelope, raw json.RawMessage) (Event, error) {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	ev := SubscriptionChanged{
		Envelope:       env,
		SubscriptionID: p.ID,
		CustomerID:     p.Customer.ID,
		CancelAtSet:    p.CancelAt.Set,
		CancelAt:       p.CancelAt.Time(),
	}
	if s := strings.TrimSpace(p.Status); s != "" {
		status := stripeinfra.NormalizeSubscriptionStatus(s)
		ev.Status = &status
	}
	if len(p.Items.Data) > 0 && p.Items.Data[0].Price != nil && p.Items.Data[0].Price.ID != "" {
		priceID := p.Items.Data[0].Price.ID
		ev.PriceID = &priceID
	}

	ev.Period = observedPeriod(factsFromPayload(p))
	return ev, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
