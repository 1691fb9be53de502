package persistence

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextSequenceSQL increments the (user, type, year) counter in one statement.
// The row lock taken by the upsert serializes concurrent callers.
const nextSequenceSQL = `INSERT INTO document_sequences (user_id, doc_type, year, value, updated_at)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT (user_id, doc_type, year)
DO UPDATE SET value = document_sequences.value + 1, updated_at = excluded.updated_at
RETURNING value`

// GormDocumentSequence implements DocumentSequence with an atomic SQL upsert
type GormDocumentSequence struct {
	db *gorm.DB
}

// NewGormDocumentSequence creates a new GormDocumentSequence
func NewGormDocumentSequence(db *gorm.DB) *GormDocumentSequence {
	return &GormDocumentSequence{db: db}
}

// Next returns the next value of the user's sequence for docType and year, starting at 1
func (s *GormDocumentSequence) Next(ctx context.Context, userID uuid.UUID, docType invoicing.DocumentType, year int) (int64, error) {
	if !docType.IsValid() {
		return 0, shared.NewValidationError("unknown document type: " + string(docType))
	}

	var value int64
	if err := s.db.WithContext(ctx).
		Raw(nextSequenceSQL, userID, string(docType), year, time.Now()).
		Scan(&value).Error; err != nil {
		return 0, storeError("next document sequence", "document sequence", err)
	}
	return value, nil
}

// Ensure GormDocumentSequence implements DocumentSequence
var _ invoicing.DocumentSequence = (*GormDocumentSequence)(nil)
