package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company lifecycle stages
const (
	StageDiscovery = "discovery"
	StagePilot     = "pilot"
	StageRollout   = "rollout"
	StageLive      = "live"
)

// CompanyStages lists the valid company stage values
var CompanyStages = []string{StageDiscovery, StagePilot, StageRollout, StageLive}

// Company is a client account an FDE works with. The source tracked the
// same entity under two names (company/customer); this is the canonical
// one, with the customer routes aliased at the HTTP boundary.
type Company struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null"`
	Stage          string          `json:"stage" gorm:"type:varchar(50);default:'discovery'"`
	SuccessMetrics json.RawMessage `json:"success_metrics,omitempty" gorm:"type:jsonb"`
	OwnerID        string          `json:"owner_id" gorm:"type:uuid;index;not null"`
	OrganizationID string          `json:"organization_id" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Owner        *User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Integrations []Integration `json:"integrations,omitempty" gorm:"foreignKey:CompanyID"`
	Tasks        []Task        `json:"tasks,omitempty" gorm:"foreignKey:CompanyID"`
	Notes        []Note        `json:"notes,omitempty" gorm:"foreignKey:CompanyID"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
