package stripewebhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agency-portal/internal/domain/billing"
	"agency-portal/internal/infra/eventlock"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"
	"agency-portal/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type fakeEngine struct {
	mu         sync.Mutex
	HandleFunc func(ctx context.Context, ev reconcile.Event) (*reconcile.Outcome, error)
	Handled    []reconcile.Event
}

func (f *fakeEngine) Handle(ctx context.Context, ev reconcile.Event) (*reconcile.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Handled = append(f.Handled, ev)
	if f.HandleFunc != nil {
		return f.HandleFunc(ctx, ev)
	}
	meta := ev.Meta()
	return &reconcile.Outcome{EventID: meta.EventID, Kind: meta.Type}, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (bool, error) { return false, nil }
func (busyLocker) Release(context.Context, string) error         { return nil }

func sign(payload []byte, ts int64) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventBody(t *testing.T, id, typ string, obj map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        typ,
		"created":     time.Now().Unix(),
		"api_version": "2023-08-16",
		"data":        map[string]any{"object": obj},
	})
	require.NoError(t, err)
	return body
}

func invoiceBody(t *testing.T, id string) []byte {
	return eventBody(t, id, "invoice.paid", map[string]any{"id": "in_1", "customer": "cus_1", "amount_paid": 100})
}

type fixture struct {
	router *gin.Engine
	engine *fakeEngine
	events *repository.WebhookEventRepository
}

func newFixture(t *testing.T, locker eventlock.Locker) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	f := &fixture{
		engine: &fakeEngine{},
		events: repository.NewWebhookEventRepository(db),
	}
	h := NewHandler(f.engine, f.events, locker, testSecret, zerolog.Nop())
	f.router = gin.New()
	f.router.POST("/webhook", h.StripeWebhook)
	return f
}

func (f *fixture) post(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postSigned(body []byte) *httptest.ResponseRecorder {
	return f.post(body, sign(body, time.Now().Unix()))
}

func status(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	s, _ := resp["status"].(string)
	return s
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t, eventlock.NoopLocker{})

	w := f.post(invoiceBody(t, "evt_1"), "t=1,v1=deadbeef")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.engine.Handled)
}

func TestWebhookIgnoresUnhandledTypes(t *testing.T) {
	f := newFixture(t, eventlock.NoopLocker{})

	w := f.postSigned(eventBody(t, "evt_1", "customer.created", map[string]any{"id": "cus_1"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", status(t, w))
	assert.Empty(t, f.engine.Handled)
}

func TestWebhookProcessesOnceAndAnswersDuplicates(t *testing.T) {
	f := newFixture(t, eventlock.NoopLocker{})
	body := invoiceBody(t, "evt_1")

	w := f.postSigned(body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", status(t, w))

	w = f.postSigned(body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", status(t, w))

	require.Len(t, f.engine.Handled, 1)
	inv, ok := f.engine.Handled[0].(reconcile.InvoiceEvent)
	require.True(t, ok)
	assert.Equal(t, "in_1", inv.InvoiceID)

	stored, err := f.events.Get(context.Background(), billing.ProviderStripe, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Succeeded())
}

func TestWebhookHandlerFailureIsRetried(t *testing.T) {
	f := newFixture(t, eventlock.NoopLocker{})
	f.engine.HandleFunc = func(context.Context, reconcile.Event) (*reconcile.Outcome, error) {
		return nil, errors.New("database unavailable")
	}
	body := invoiceBody(t, "evt_1")

	w := f.postSigned(body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	stored, err := f.events.Get(context.Background(), billing.ProviderStripe, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "database unavailable", stored.ProcessingError)

	f.engine.HandleFunc = nil
	w = f.postSigned(body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", status(t, w))
	assert.Len(t, f.engine.Handled, 2)
}

func TestWebhookMalformedAndInvalidPayloads(t *testing.T) {
	f := newFixture(t, eventlock.NoopLocker{})

	w := f.postSigned(eventBody(t, "evt_1", "invoice.paid", map[string]any{"customer": "cus_1"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = f.postSigned(eventBody(t, "evt_2", "invoice.paid", map[string]any{"id": "in_1", "customer": "cus_1", "amount_paid": "many"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.engine.Handled)
}

func TestWebhookInFlightEventIsRejected(t *testing.T) {
	f := newFixture(t, busyLocker{})

	w := f.postSigned(invoiceBody(t, "evt_1"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, f.engine.Handled)
}

func TestWebhookWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeEngine{}, nil, eventlock.NoopLocker{}, "", zerolog.Nop())
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
