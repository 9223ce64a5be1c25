package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"agency-portal/internal/domain/billing"
	"agency-portal/internal/infra/eventlock"
	"agency-portal/internal/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/datatypes"
)

const maxBodyBytes = 65536

type EventEngine interface {
	Handle(ctx context.Context, ev reconcile.Event) (*reconcile.Outcome, error)
}

type EventStore interface {
	CreateIfNotExists(ctx context.Context, event *billing.WebhookEvent) (bool, *billing.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, processingErr error) error
}

type Handler struct {
	engine         EventEngine
	events         EventStore
	locker         eventlock.Locker
	endpointSecret string
	log            zerolog.Logger
}

func NewHandler(engine EventEngine, events EventStore, locker eventlock.Locker, endpointSecret string, log zerolog.Logger) *Handler {
	return &Handler{
		engine:         engine,
		events:         events,
		locker:         locker,
		endpointSecret: endpointSecret,
		log:            log,
	}
}

// StripeWebhook verifies the signature, decodes the event and hands it to the
// reconciliation engine. Any non-2xx answer makes Stripe redeliver.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	logger := h.log.With().Str("event_id", event.ID).Str("type", string(event.Type)).Logger()

	ev, err := reconcile.Decode(event)
	switch {
	case errors.Is(err, reconcile.ErrUnhandledEvent):
		c.JSON(http.StatusOK, gin.H{"received": true, "status": "ignored"})
		return
	case errors.Is(err, reconcile.ErrInvalidPayload):
		logger.Warn().Err(err).Msg("stripe event payload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event payload"})
		return
	case err != nil:
		logger.Error().Err(err).Msg("stripe event is missing required fields")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	acquired, err := h.locker.Acquire(ctx, event.ID)
	if err != nil {
		logger.Error().Err(err).Msg("event lock unavailable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event lock unavailable"})
		return
	}
	if !acquired {
		c.JSON(http.StatusConflict, gin.H{"error": "Event is already being processed"})
		return
	}
	defer func() {
		if err := h.locker.Release(context.WithoutCancel(ctx), event.ID); err != nil {
			logger.Warn().Err(err).Msg("event lock release failed")
		}
	}()

	_, stored, err := h.events.CreateIfNotExists(ctx, &billing.WebhookEvent{
		Provider:        billing.ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         datatypes.JSON(payload),
	})
	if err != nil {
		logger.Error().Err(err).Msg("recording webhook event failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	if stored.Succeeded() {
		c.JSON(http.StatusOK, gin.H{"received": true, "status": "duplicate"})
		return
	}

	outcome, procErr := h.engine.Handle(ctx, ev)
	if err := h.events.MarkProcessed(ctx, stored.ID, procErr); err != nil {
		logger.Error().Err(err).Msg("marking webhook event processed failed")
	}
	if procErr != nil {
		logger.Error().Err(procErr).Msg("stripe event handler failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": procErr.Error()})
		return
	}

	logOutcome(logger, outcome)
	c.JSON(http.StatusOK, gin.H{"received": true, "status": "processed"})
}

func logOutcome(logger zerolog.Logger, out *reconcile.Outcome) {
	if out == nil {
		return
	}
	e := logger.Info().
		Bool("dropped", out.Dropped).
		Strs("alerts", out.Alerts).
		Strs("activities", out.Activities)
	if t := out.Transition; t != nil {
		e = e.Str("project_id", t.ProjectID.String()).
			Str("trigger", string(t.Trigger)).
			Bool("controller_called", t.ControllerCalled).
			Bool("committed", t.Committed)
		if t.ControllerErr != nil {
			e = e.AnErr("controller_error", t.ControllerErr)
		}
	}
	e.Msg("stripe event processed")
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
