package activity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAppendOnly = errors.New("activity log entries are append-only")

const (
	AlertPaymentFailed       = "payment_failed"
	AlertInvoiceOverdue      = "invoice_overdue"
	AlertVercelPauseFailed   = "vercel_pause_failed"
	AlertVercelUnpauseFailed = "vercel_unpause_failed"
)

// Alert is shown to admins until dismissed. Dismissal is the only mutation.
type Alert struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type      string     `gorm:"type:varchar(50);not null;index" json:"type"`
	Message   string     `gorm:"not null" json:"message"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	IsRead    bool       `gorm:"not null;index" json:"is_read"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Alert) TableName() string { return "admin_alerts" }

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
