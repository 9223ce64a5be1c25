package reconcile

import (
	"context"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/billing"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
)

type Ledger interface {
	UpsertInvoice(ctx context.Context, inv *billing.Invoice) error
	UpsertSubscription(ctx context.Context, sub *billing.Subscription) error
	SubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error)
	PatchSubscription(ctx context.Context, stripeSubscriptionID string, patch billing.SubscriptionPatch) (bool, error)
	MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error)
}

// Directory lookups return nil, nil when the row does not exist.
type Directory interface {
	ProfileByStripeCustomer(ctx context.Context, customerID string) (*profiles.Profile, error)
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
}

type SiteControls interface {
	Get(ctx context.Context, projectID uuid.UUID) (*access.SiteControl, error)
	CompareAndSwap(ctx context.Context, projectID uuid.UUID, t access.Transition) (bool, error)
}

type Journal interface {
	AppendActivity(ctx context.Context, e *activity.Entry) error
	RaiseAlert(ctx context.Context, a *activity.Alert) error
	HasActivity(ctx context.Context, action, key, value string) (bool, error)
}

// AccessController pauses and unpauses the deployed site. Calls may fail
// independently of any local write.
type AccessController interface {
	Pause(ctx context.Context, remoteProjectID string) error
	Unpause(ctx context.Context, remoteProjectID string) error
}

// SiteLocker serializes transitions of one site across workers. Keys are
// project ids.
type SiteLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}
