package persistence

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// Ledger rows are inserted and deleted, never updated.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForInvoice finds a payment belonging to an invoice
func (r *GormPaymentRepository) FindByIDForInvoice(ctx context.Context, invoiceID, id uuid.UUID) (*invoicing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND id = ?", invoiceID, id).
		First(&model).Error; err != nil {
		return nil, storeError("find payment", "payment", err)
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists an invoice's payments, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, storeError("list payments", "payment", err)
	}

	payments := make([]invoicing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// Save inserts a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *invoicing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("save payment", "payment", err)
	}
	return nil
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return storeError("delete payment", "payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return storeError("delete payment", "payment", gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteByInvoice removes every payment of an invoice
func (r *GormPaymentRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "invoice_id = ?", invoiceID).Error; err != nil {
		return storeError("delete payments", "payment", err)
	}
	return nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ invoicing.PaymentRepository = (*GormPaymentRepository)(nil)
