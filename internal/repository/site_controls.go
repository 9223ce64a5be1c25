package repository

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/access"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SiteControlRepository struct {
	db *gorm.DB
}

func NewSiteControlRepository(db *gorm.DB) *SiteControlRepository {
	return &SiteControlRepository{db: db}
}

func (r *SiteControlRepository) Get(ctx context.Context, projectID uuid.UUID) (*access.SiteControl, error) {
	return firstOrNil[access.SiteControl](r.db.WithContext(ctx).Where("project_id = ?", projectID))
}

// matchState narrows q to rows currently in state s, mirroring
// SiteControl.State.
func matchState(q *gorm.DB, s access.State) *gorm.DB {
	switch s {
	case access.Live:
		return q.Where("is_live = ?", true)
	case access.PausedOverdue:
		return q.Where("is_live = ? AND paused_reason = ?", false, access.ReasonInvoiceOverdue)
	default:
		return q.Where("is_live = ? AND (paused_reason IS NULL OR paused_reason <> ?)", false, access.ReasonInvoiceOverdue)
	}
}

// CompareAndSwap writes t.To only if the row is still in t.From, in a single
// conditional UPDATE. Auto-pause additionally requires auto_pause_enabled so
// an admin disabling it between read and write wins. The boolean reports
// whether this call performed the write.
func (r *SiteControlRepository) CompareAndSwap(ctx context.Context, projectID uuid.UUID, t access.Transition) (bool, error) {
	isLive, reason := t.To.Columns()

	q := r.db.WithContext(ctx).Model(&access.SiteControl{}).Where("project_id = ?", projectID)
	q = matchState(q, t.From)
	if t.Trigger == access.AutoPause {
		q = q.Where("auto_pause_enabled = ?", true)
	}

	res := q.Updates(map[string]interface{}{
		"is_live":       isLive,
		"paused_reason": reason,
	})
	if res.Error != nil {
		return false, fmt.Errorf("update site control %s: %w", projectID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *SiteControlRepository) SetAutoPauseEnabled(ctx context.Context, projectID uuid.UUID, enabled bool) error {
	res := r.db.WithContext(ctx).
		Model(&access.SiteControl{}).
		Where("project_id = ?", projectID).
		Update("auto_pause_enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("update auto pause for %s: %w", projectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
