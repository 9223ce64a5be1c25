package billing

import (
	"time"

	"agency-portal/internal/domain"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceOpen  InvoiceStatus = "open"
	InvoicePaid  InvoiceStatus = "paid"
)

type InvoiceType string

const (
	InvoiceOneTime      InvoiceType = "one_time"
	InvoiceSubscription InvoiceType = "subscription"
)

// Rank orders invoice statuses along the only direction they may move.
// A write carrying a lower rank than the stored row never overwrites it.
func (s InvoiceStatus) Rank() int {
	switch s {
	case InvoicePaid:
		return 2
	case InvoiceOpen:
		return 1
	default:
		return 0
	}
}

type Invoice struct {
	domain.BaseModel
	StripeInvoiceID string     `gorm:"column:stripe_invoice_id;not null;uniqueIndex:idx_invoices_stripe_invoice_id" json:"stripe_invoice_id"`
	ProjectID       *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	ClientID        *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`

	// Amount is in minor units: amount_paid once paid, amount_due before that.
	Amount   int64         `gorm:"not null" json:"amount"`
	Currency string        `gorm:"type:varchar(3);not null" json:"currency"`
	Type     InvoiceType   `gorm:"type:varchar(20);not null" json:"type"`
	Status   InvoiceStatus `gorm:"type:varchar(20);not null" json:"status"`

	Number      *string    `json:"number,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	HostedURL   *string    `gorm:"column:hosted_url" json:"hosted_url,omitempty"`
	PDFURL      *string    `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// DisplayNumber is used in activity and alert text.
func (i *Invoice) DisplayNumber() string {
	if i.Number != nil && *i.Number != "" {
		return *i.Number
	}
	return i.StripeInvoiceID
}
