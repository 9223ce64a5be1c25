package billing

import (
	"time"

	"gorm.io/datatypes"
)

const ProviderStripe = "stripe"

// WebhookEvent stores every verified provider delivery so duplicates can be
// answered without re-running handlers and failed ones can be replayed.
type WebhookEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:varchar(20);not null;uniqueIndex:ux_billing_webhook_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string         `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_webhook_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WebhookEvent) TableName() string { return "billing_webhook_events" }

// Succeeded reports whether an earlier delivery already processed the event cleanly.
func (e *WebhookEvent) Succeeded() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}
