package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Eval run triggers record how a run was initiated
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerWebhook   = "webhook"
)

// EvalTriggers lists the valid eval run trigger values
var EvalTriggers = []string{TriggerManual, TriggerScheduled, TriggerWebhook}

// EvalRun records one evaluation suite execution. Payload and metadata
// are opaque to the server and round-tripped verbatim.
type EvalRun struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	Suite          string          `json:"suite" gorm:"type:varchar(255);index;not null"`
	Dataset        string          `json:"dataset,omitempty" gorm:"type:varchar(255)"`
	PassRate       float64         `json:"pass_rate" gorm:"not null"`
	TotalTests     int             `json:"total_tests" gorm:"not null"`
	PassedTests    int             `json:"passed_tests" gorm:"not null"`
	Tokens         *int            `json:"tokens,omitempty"`
	Duration       *int            `json:"duration,omitempty"`
	Trigger        string          `json:"trigger" gorm:"type:varchar(50);default:'manual'"`
	CompanyID      *string         `json:"company_id,omitempty" gorm:"type:uuid;index"`
	AgentID        *string         `json:"agent_id,omitempty" gorm:"type:uuid"`
	Payload        json.RawMessage `json:"payload,omitempty" gorm:"type:jsonb"`
	Metadata       json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	OrganizationID string          `json:"organization_id" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (e *EvalRun) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
