package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSequenceModel is one counter per (user, document type, year).
// Value is the last number handed out.
type DocumentSequenceModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocType   string    `gorm:"type:varchar(20);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
