package projects

import (
	"agency-portal/internal/domain"

	"github.com/google/uuid"
)

// PriceVersion is one entry in a project's append-only price history.
// Stripe prices are immutable, so every change creates a new price and a new row.
type PriceVersion struct {
	domain.BaseModel
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"type:varchar(3);not null" json:"currency"`
	Interval      string    `gorm:"column:billing_interval;type:varchar(10);not null" json:"interval"`
	StripePriceID string    `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_project_prices_stripe_price_id" json:"stripe_price_id"`
}

func (PriceVersion) TableName() string { return "project_prices" }
