package projects

import (
	"agency-portal/internal/domain"

	"github.com/google/uuid"
)

type Project struct {
	domain.BaseModel
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Name     string    `gorm:"not null" json:"name"`
	Domain   *string   `json:"domain,omitempty"`

	// MonthlyPrice is in minor units; 0 means the project is not billed.
	MonthlyPrice int64  `gorm:"not null" json:"monthly_price"`
	Currency     string `gorm:"type:varchar(3);not null" json:"currency"`

	StripeProductID *string `gorm:"column:stripe_product_id" json:"stripe_product_id,omitempty"`
	StripePriceID   *string `gorm:"column:stripe_price_id" json:"stripe_price_id,omitempty"`
	VercelProjectID *string `gorm:"column:vercel_project_id" json:"vercel_project_id,omitempty"`
}

func (p *Project) IsBilled() bool { return p.MonthlyPrice > 0 }

// HasDeployment reports whether the site is linked to a Vercel project that
// can be paused remotely.
func (p *Project) HasDeployment() bool {
	return p.VercelProjectID != nil && *p.VercelProjectID != ""
}
