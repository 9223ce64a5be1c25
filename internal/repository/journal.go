package repository

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/activity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalRepository writes the activity log and the admin alert queue.
// Activity entries are only ever inserted.
type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) AppendActivity(ctx context.Context, e *activity.Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append activity %s: %w", e.Action, err)
	}
	return nil
}

func (r *JournalRepository) RaiseAlert(ctx context.Context, a *activity.Alert) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("raise alert %s: %w", a.Type, err)
	}
	return nil
}

// HasActivity reports whether an entry with the given action carries
// metadata[key] == value.
func (r *JournalRepository) HasActivity(ctx context.Context, action, key, value string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&activity.Entry{}).
		Where("action = ?", action).
		Where(datatypes.JSONQuery("metadata").Equals(value, key)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("lookup activity %s: %w", action, err)
	}
	return n > 0, nil
}

// ListAlerts returns unread alerts first, newest first within each group.
func (r *JournalRepository) ListAlerts(ctx context.Context, unreadOnly bool, limit int) ([]activity.Alert, error) {
	q := r.db.WithContext(ctx).Order("is_read ASC").Order("created_at DESC")
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []activity.Alert
	return out, q.Find(&out).Error
}

func (r *JournalRepository) DismissAlert(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&activity.Alert{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("dismiss alert %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JournalRepository) ListActivityByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]activity.Entry, error) {
	return r.listActivity(ctx, "project_id = ?", projectID, limit)
}

func (r *JournalRepository) ListActivityByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]activity.Entry, error) {
	return r.listActivity(ctx, "client_id = ?", clientID, limit)
}

func (r *JournalRepository) listActivity(ctx context.Context, where string, id uuid.UUID, limit int) ([]activity.Entry, error) {
	q := r.db.WithContext(ctx).Where(where, id).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []activity.Entry
	return out, q.Find(&out).Error
}
