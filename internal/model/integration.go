package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Integration delivery statuses
const (
	IntegrationDiscovery = "discovery"
	IntegrationBuild     = "build"
	IntegrationPilot     = "pilot"
	IntegrationLaunch    = "launch"
)

// IntegrationStatuses lists the valid integration status values
var IntegrationStatuses = []string{IntegrationDiscovery, IntegrationBuild, IntegrationPilot, IntegrationLaunch}

// Integration is a delivery workstream under a company
type Integration struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Status         string    `json:"status" gorm:"type:varchar(50);default:'discovery'"`
	Phase          string    `json:"phase,omitempty" gorm:"type:varchar(255)"`
	CompanyID      string    `json:"company_id" gorm:"type:uuid;index;not null"`
	TemplateID     *string   `json:"template_id,omitempty" gorm:"type:uuid;index"`
	OwnerID        *string   `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Company        *Company             `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Owner          *User                `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Template       *IntegrationTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	ChecklistItems []ChecklistItem      `json:"checklist_items,omitempty" gorm:"foreignKey:IntegrationID"`
	ArtifactLinks  []ArtifactLink       `json:"artifact_links,omitempty" gorm:"foreignKey:IntegrationID"`
	Tasks          []Task               `json:"tasks,omitempty" gorm:"foreignKey:IntegrationID"`
}

func (i *Integration) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
