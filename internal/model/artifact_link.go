package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArtifactLink is a reference to an external artifact (doc, dashboard,
// repo) attached to an integration. Read-only over the API.
type ArtifactLink struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	Type          string    `json:"type" gorm:"type:varchar(100);not null"`
	URL           string    `json:"url" gorm:"type:text;not null"`
	Name          string    `json:"name,omitempty" gorm:"type:varchar(255)"`
	IntegrationID string    `json:"integration_id" gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *ArtifactLink) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
