package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task statuses
const (
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskStatuses lists the valid task status values
var TaskStatuses = []string{TaskOpen, TaskInProgress, TaskCompleted, TaskBlocked}

// TaskPriorities lists the valid task priority values
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Task is an FDE work item, optionally tied to a company or integration.
// Its tenant is resolved through the owning user.
type Task struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string     `json:"title" gorm:"type:varchar(255);not null"`
	Description   string     `json:"description,omitempty" gorm:"type:text"`
	Status        string     `json:"status" gorm:"type:varchar(50);default:'open'"`
	Priority      string     `json:"priority,omitempty" gorm:"type:varchar(50)"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Source        string     `json:"source,omitempty" gorm:"type:varchar(100)"`
	CompanyID     *string    `json:"company_id,omitempty" gorm:"type:uuid;index"`
	IntegrationID *string    `json:"integration_id,omitempty" gorm:"type:uuid;index"`
	OwnerID       string     `json:"owner_id" gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Company     *Company     `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Integration *Integration `json:"integration,omitempty" gorm:"foreignKey:IntegrationID"`
	Owner       *User        `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
