package profiles

import "agency-portal/internal/domain"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Profile is created by the auth provider; billing linkage is attached later
// when an admin provisions the Stripe customer.
type Profile struct {
	domain.BaseModel
	Email            string  `gorm:"not null;uniqueIndex:idx_profiles_email" json:"email"`
	FullName         string  `json:"full_name"`
	CompanyName      *string `json:"company_name,omitempty"`
	Role             string  `gorm:"type:varchar(20);not null" json:"role"`
	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_profiles_stripe_customer_id" json:"stripe_customer_id,omitempty"`
}

func (p *Profile) IsAdmin() bool { return p.Role == RoleAdmin }

func (p *Profile) HasBilling() bool {
	return p.StripeCustomerID != nil && *p.StripeCustomerID != ""
}
