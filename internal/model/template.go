package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntegrationTemplate holds a reusable checklist definition. The items
// live as an inline JSON array, not relational checklist rows;
// instantiating a template into an integration is deliberately absent.
type IntegrationTemplate struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null"`
	Description    string          `json:"description,omitempty" gorm:"type:text"`
	ChecklistItems json.RawMessage `json:"checklist_items" gorm:"type:jsonb"`
	OrganizationID string          `json:"organization_id" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TemplateChecklistItem is the shape of one entry in a template's
// checklist_items array, used only for validation on create.
type TemplateChecklistItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (t *IntegrationTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
