package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one recorded response to a form. Data maps field ids to
// the values the client sent.
type Submission struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)"`
	FormID      string         `gorm:"not null;index;type:varchar(64)"`
	Data        datatypes.JSON `gorm:"not null"`
	SubmittedAt time.Time      `gorm:"not null;index"`
}
