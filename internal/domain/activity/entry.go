package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SubscriptionCreated  = "subscription_created"
	SubscriptionCanceled = "subscription_canceled"
	InvoicePaid          = "invoice_paid"
	PaymentFailed        = "payment_failed"
	InvoiceOverdue       = "invoice_overdue"
	SiteAutoPaused       = "site_auto_paused"
	SiteAutoUnpaused     = "site_auto_unpaused"
	SitePaused           = "site_paused"
	SiteResumed          = "site_resumed"
	InvoiceSent          = "invoice_sent"
	PriceChanged         = "price_changed"
)

// Entry is an append-only audit record. Rows are inserted and never updated or deleted.
type Entry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID    *uuid.UUID     `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ProjectID   *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Action      string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Description string         `gorm:"not null" json:"description"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Entry) TableName() string { return "activity_log" }

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Entry) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

func (e *Entry) BeforeDelete(tx *gorm.DB) error {
	return ErrAppendOnly
}
