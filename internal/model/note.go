package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note types
const (
	NoteTypeNote     = "note"
	NoteTypeProposal = "proposal"
	NoteTypeUpdate   = "update"
	NoteTypeMeeting  = "meeting"
)

// NoteTypes lists the valid note type values
var NoteTypes = []string{NoteTypeNote, NoteTypeProposal, NoteTypeUpdate, NoteTypeMeeting}

// Note is an FDE-authored document, optionally tied to a company. Its
// tenant is resolved through the author. Version increments by exactly
// one on every successful update and is never client-supplied.
type Note struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string    `json:"title" gorm:"type:varchar(255);not null"`
	Content       string    `json:"content" gorm:"type:text"`
	Type          string    `json:"type" gorm:"type:varchar(50);default:'note'"`
	ClientVisible bool      `json:"client_visible" gorm:"default:false"`
	ShareableLink string    `json:"shareable_link" gorm:"type:varchar(255);uniqueIndex"`
	Version       int       `json:"version" gorm:"default:1"`
	CompanyID     *string   `json:"company_id,omitempty" gorm:"type:uuid;index"`
	AuthorID      string    `json:"author_id" gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Author  *User    `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
