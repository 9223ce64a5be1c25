package repository

import (
	"context"
	"fmt"
	"time"

	"agency-portal/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// CreateIfNotExists records the delivery. created is false when the event id
// was already stored; stored is the row as persisted either way.
func (r *WebhookEventRepository) CreateIfNotExists(ctx context.Context, event *billing.WebhookEvent) (bool, *billing.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, fmt.Errorf("record webhook event %s: %w", event.ProviderEventID, tx.Error)
	}

	created := tx.RowsAffected > 0
	stored, err := r.Get(ctx, event.Provider, event.ProviderEventID)
	if err != nil {
		return false, nil, err
	}
	if stored == nil {
		return false, nil, fmt.Errorf("webhook event %s vanished after insert", event.ProviderEventID)
	}
	return created, stored, nil
}

func (r *WebhookEventRepository) Get(ctx context.Context, provider, providerEventID string) (*billing.WebhookEvent, error) {
	return firstOrNil[billing.WebhookEvent](r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID))
}

// MarkProcessed stamps processed_at and stores the error text, clearing any
// error from an earlier attempt.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, id uint, processingErr error) error {
	now := time.Now()
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return r.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": errMsg,
		}).Error
}

func (r *WebhookEventRepository) ListFailed(ctx context.Context, limit int) ([]billing.WebhookEvent, error) {
	q := r.db.WithContext(ctx).Where("processing_error <> ''").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []billing.WebhookEvent
	return out, q.Find(&out).Error
}
