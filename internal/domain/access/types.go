package access

import (
	"time"

	"github.com/google/uuid"
)

// State is the derived live/paused state of a project's public site.
type State string

const (
	Live          State = "live"
	PausedManual  State = "paused_manual"
	PausedOverdue State = "paused_overdue"
)

const (
	ReasonManual         = "manual"
	ReasonInvoiceOverdue = "invoice_overdue"
)

// Trigger names who asked for a transition and in which direction.
type Trigger string

const (
	AutoPause    Trigger = "auto_pause"
	AutoResume   Trigger = "auto_resume"
	ManualPause  Trigger = "manual_pause"
	ManualResume Trigger = "manual_resume"
)

// SiteControl is the per-project row. It is written only through
// compare-and-set updates keyed on the state it was read in.
type SiteControl struct {
	ProjectID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	IsLive           bool      `gorm:"not null" json:"is_live"`
	AutoPauseEnabled bool      `gorm:"not null" json:"auto_pause_enabled"`
	PausedReason     *string   `gorm:"type:varchar(20)" json:"paused_reason"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SiteControl) TableName() string { return "site_controls" }

// NewSiteControl is the row created alongside a project.
func NewSiteControl(projectID uuid.UUID, autoPause bool) *SiteControl {
	return &SiteControl{ProjectID: projectID, IsLive: true, AutoPauseEnabled: autoPause}
}
