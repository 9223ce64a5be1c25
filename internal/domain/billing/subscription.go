package billing

import (
	"time"

	"agency-portal/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
)

// IsTerminal reports whether no later event may change the status.
func (s SubscriptionStatus) IsTerminal() bool { return s == SubscriptionCanceled }

type Subscription struct {
	domain.BaseModel
	StripeSubscriptionID string             `gorm:"column:stripe_subscription_id;not null;uniqueIndex:idx_subscriptions_stripe_subscription_id" json:"stripe_subscription_id"`
	ProjectID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"project_id"`
	ClientID             uuid.UUID          `gorm:"type:uuid;not null;index" json:"client_id"`
	StripePriceID        *string            `gorm:"column:stripe_price_id" json:"stripe_price_id,omitempty"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);not null" json:"status"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAt             *time.Time         `json:"cancel_at,omitempty"`
}

// Period is a billing period. Start and End are always written together.
type Period struct {
	Start time.Time
	End   time.Time
}

// SubscriptionPatch carries the fields present on a subscription update event.
// Nil fields leave the stored value untouched.
type SubscriptionPatch struct {
	Status        *SubscriptionStatus
	StripePriceID *string
	CancelAt      *time.Time
	ClearCancelAt bool
	Period        *Period
}
