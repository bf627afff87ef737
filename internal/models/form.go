package models

import (
	"time"

	"gorm.io/datatypes"
)

// Form is a stored form definition. Fields holds the client's field list
// as a JSON array.
type Form struct {
	ID            string         `gorm:"primaryKey;type:varchar(64)"`
	InternalTitle string         `gorm:"not null"`
	PublicTitle   *string
	Description   *string
	Slug          *string        `gorm:"index"`
	IsPublished   bool           `gorm:"not null;default:false"`
	Fields        datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

// DisplayTitle is the public title, falling back to the internal one.
func (f *Form) DisplayTitle() string {
	if f.PublicTitle != nil && *f.PublicTitle != "" {
		return *f.PublicTitle
	}
	return f.InternalTitle
}
