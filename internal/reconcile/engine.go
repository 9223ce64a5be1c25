package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"
	"agency-portal/internal/infra/eventlock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/datatypes"
)

type Deps struct {
	Ledger       Ledger
	Directory    Directory
	SiteControls SiteControls
	Journal      Journal
	Controller   AccessController
	Fetcher      SubscriptionFetcher
	SiteLock     SiteLocker
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Engine applies verified Stripe events to the ledger and the site controls.
// Each call is independent; nothing is retried internally.
type Engine struct {
	ledger       Ledger
	directory    Directory
	siteControls SiteControls
	journal      Journal
	controller   AccessController
	fetcher      SubscriptionFetcher
	siteLock     SiteLocker
	lockBackoff  time.Duration
	norm         *Normalizer
	log          zerolog.Logger
	now          func() time.Time
}

func NewEngine(d Deps) *Engine {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	var siteLock SiteLocker = eventlock.NoopLocker{}
	if d.SiteLock != nil {
		siteLock = d.SiteLock
	}
	return &Engine{
		ledger:       d.Ledger,
		directory:    d.Directory,
		siteControls: d.SiteControls,
		journal:      d.Journal,
		controller:   d.Controller,
		fetcher:      d.Fetcher,
		siteLock:     siteLock,
		lockBackoff:  defaultLockBackoff,
		norm:         NewNormalizer(d.Ledger, d.Directory, d.Logger),
		log:          d.Logger,
		now:          now,
	}
}

// Process decodes and handles a verified event. Decode failures are returned
// wrapped in ErrUnhandledEvent, ErrInvalidPayload or ErrMalformedEvent.
func (e *Engine) Process(ctx context.Context, evt stripe.Event) (*Outcome, error) {
	ev, err := Decode(evt)
	if err != nil {
		return nil, err
	}
	return e.Handle(ctx, ev)
}

func (e *Engine) Handle(ctx context.Context, ev Event) (*Outcome, error) {
	meta := ev.Meta()
	out := &Outcome{EventID: meta.EventID, Kind: meta.Type}

	var err error
	switch v := ev.(type) {
	case CheckoutCompleted:
		err = e.handleCheckoutCompleted(ctx, v, out)
	case InvoiceEvent:
		err = e.handleInvoice(ctx, v, out)
	case SubscriptionChanged:
		err = e.handleSubscriptionChanged(ctx, v, out)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnhandledEvent, ev)
	}
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", meta.Type, meta.EventID, err)
	}

	if out.Dropped {
		e.log.Info().
			Str("event_id", meta.EventID).
			Str("type", string(meta.Type)).
			Str("reason", out.DropReason).
			Msg("stripe event dropped")
	}
	return out, nil
}

// projectOrNil loads a project when id is set. A dangling id is logged and
// treated as unknown.
func (e *Engine) projectOrNil(ctx context.Context, id *uuid.UUID) (*projects.Project, error) {
	if id == nil {
		return nil, nil
	}
	p, err := e.directory.GetProject(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", id, err)
	}
	if p == nil {
		e.log.Warn().Str("project_id", id.String()).Msg("project referenced by stripe event does not exist")
	}
	return p, nil
}

// attributeClient picks the client an activity or alert belongs to: the paying
// profile, else the project owner.
func attributeClient(profile *profiles.Profile, project *projects.Project) *uuid.UUID {
	switch {
	case profile != nil:
		id := profile.ID
		return &id
	case project != nil:
		id := project.ClientID
		return &id
	default:
		return nil
	}
}

func (e *Engine) appendActivity(ctx context.Context, out *Outcome, action, description string, clientID, projectID *uuid.UUID, meta map[string]any) error {
	entry := &activity.Entry{
		ClientID:    clientID,
		ProjectID:   projectID,
		Action:      action,
		Description: description,
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode activity metadata: %w", err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	if err := e.journal.AppendActivity(ctx, entry); err != nil {
		return err
	}
	out.Activities = append(out.Activities, action)
	return nil
}

func (e *Engine) raiseAlert(ctx context.Context, out *Outcome, alertType, message string, clientID, projectID *uuid.UUID) error {
	a := &activity.Alert{
		Type:      alertType,
		Message:   message,
		ClientID:  clientID,
		ProjectID: projectID,
	}
	if err := e.journal.RaiseAlert(ctx, a); err != nil {
		return err
	}
	if out != nil {
		out.Alerts = append(out.Alerts, alertType)
	}
	return nil
}
