package reconcile

import (
	"bytes"
	"encoding/json"
	"time"
)

// Payloads are decoded into local structs rather than stripe-go types so
// that both the current invoice shape (parent.subscription_details) and the
// legacy top-level subscription field decode regardless of API version.

// objectRef accepts either an id string or an expanded object with an id.
type objectRef struct {
	ID  string
	Raw json.RawMessage
}

func (r *objectRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (r objectRef) Expanded() bool { return len(r.Raw) > 0 }

// optionalUnix tells an absent key apart from an explicit null.
type optionalUnix struct {
	Set   bool
	Value *int64
}

func (o *optionalUnix) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o optionalUnix) Time() *time.Time {
	if o.Value == nil || *o.Value == 0 {
		return nil
	}
	t := time.Unix(*o.Value, 0).UTC()
	return &t
}

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     objectRef         `json:"customer"`
	Subscription objectRef         `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID               string            `json:"id"`
	Customer         objectRef         `json:"customer"`
	AmountDue        int64             `json:"amount_due"`
	AmountPaid       int64             `json:"amount_paid"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Number           *string           `json:"number"`
	Description      *string           `json:"description"`
	DueDate          optionalUnix      `json:"due_date"`
	HostedInvoiceURL *string           `json:"hosted_invoice_url"`
	InvoicePDF       *string           `json:"invoice_pdf"`
	Metadata         map[string]string `json:"metadata"`
	Subscription     objectRef         `json:"subscription"`
	Parent           *struct {
		SubscriptionDetails *struct {
			Subscription objectRef         `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
	StatusTransitions struct {
		PaidAt optionalUnix `json:"paid_at"`
	} `json:"status_transitions"`
}

type priceRecurringPayload struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           objectRef         `json:"customer"`
	Status             string            `json:"status"`
	CancelAt           optionalUnix      `json:"cancel_at"`
	BillingCycleAnchor int64             `json:"billing_cycle_anchor"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	LatestInvoice      objectRef         `json:"latest_invoice"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              *struct {
				ID        string                 `json:"id"`
				Recurring *priceRecurringPayload `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}
