package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checklist item states. Kept separate from task statuses even though the
// vocabularies nearly overlap; the source never unified them.
const (
	ChecklistPending    = "pending"
	ChecklistInProgress = "in_progress"
	ChecklistCompleted  = "completed"
	ChecklistBlocked    = "blocked"
)

// ChecklistStates lists the valid checklist item states
var ChecklistStates = []string{ChecklistPending, ChecklistInProgress, ChecklistCompleted, ChecklistBlocked}

// ChecklistItem is a work item under an integration. Its tenant is
// resolved through the owning integration.
type ChecklistItem struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string     `json:"title" gorm:"type:varchar(255);not null"`
	Description   string     `json:"description,omitempty" gorm:"type:text"`
	Category      string     `json:"category,omitempty" gorm:"type:varchar(100)"`
	State         string     `json:"state" gorm:"type:varchar(50);default:'pending'"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	IntegrationID string     `json:"integration_id" gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ci *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	return nil
}
