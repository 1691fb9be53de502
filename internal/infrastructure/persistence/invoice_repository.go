package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// overdueCandidateStatuses are the stored statuses the overdue sweep looks at
var overdueCandidateStatuses = []invoicing.InvoiceStatus{
	invoicing.InvoiceStatusSent,
	invoicing.InvoiceStatusViewed,
	invoicing.InvoiceStatusPartial,
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForUser finds an invoice by ID for its owner
func (r *GormInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.findOne(ctx, "find invoice", "user_id = ? AND id = ?", userID, id)
}

// FindAllForUser finds a user's invoices with filtering and pagination
func (r *GormInvoiceRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID),
		filter,
	)
	query = invoiceSort.list(query, filter.Filter)

	var rows []models.InvoiceModel
	if err := query.Preload("Items").Find(&rows).Error; err != nil {
		return nil, storeError("list invoices", "invoice", err)
	}
	return invoicesToDomain(rows), nil
}

// CountForUser counts a user's invoices matching the filter
func (r *GormInvoiceRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, storeError("count invoices", "invoice", err)
	}
	return count, nil
}

// FindOverdueCandidates finds open invoices due before the given time across all users
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]invoicing.Invoice, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ? AND due_date < ?", overdueCandidateStatuses, before).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeError("find overdue candidates", "invoice", err)
	}
	return invoicesToDomain(rows), nil
}

// FindByQuoteID finds the invoice converted from a quote
func (r *GormInvoiceRepository) FindByQuoteID(ctx context.Context, userID, quoteID uuid.UUID) (*invoicing.Invoice, error) {
	return r.findOne(ctx, "find invoice by quote", "user_id = ? AND quote_id = ?", userID, quoteID)
}

// FindByRecurringRun finds the invoice a schedule produced for a run date
func (r *GormInvoiceRepository) FindByRecurringRun(ctx context.Context, scheduleID uuid.UUID, runDate time.Time) (*invoicing.Invoice, error) {
	return r.findOne(ctx, "find invoice by recurring run",
		"recurring_schedule_id = ? AND recurring_run_date = ?", scheduleID, runDate)
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where(query, args...).
		First(&model).Error; err != nil {
		return nil, storeError(op, "invoice", err)
	}
	return model.ToDomain(), nil
}

// Save inserts a new invoice with its line items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("save invoice", "invoice", err)
	}
	return nil
}

// SaveWithLock updates an invoice with optimistic locking and replaces its line items
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	now := time.Now()
	model.UpdatedAt = now
	model.Version = invoice.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND user_id = ? AND version = ?", invoice.ID, invoice.UserID, invoice.Version).
			Select("*").
			Omit("id", "user_id", "created_at", "Items").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConcurrencyConflictError("invoice")
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeError("update invoice", "invoice", err)
	}

	invoice.Version++
	invoice.UpdatedAt = now
	return nil
}

// DeleteForUser permanently removes an invoice with its line items and payments
func (r *GormInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("invoice_id = ?", id).Delete(&models.PaymentModel{}).Error
	})
	return storeError("delete invoice", "invoice", err)
}

// applyFilter applies filter options without pagination
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter invoicing.InvoiceFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(invoice_number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}
	if len(filter.Statuses) > 0 {
		if filter.AsOf != nil {
			clause, args := reconciledStatusClause(filter.Statuses, *filter.AsOf)
			query = query.Where(clause, args...)
		} else {
			query = query.Where("status IN ?", filter.Statuses)
		}
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.RecurringScheduleID != nil {
		query = query.Where("recurring_schedule_id = ?", *filter.RecurringScheduleID)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	return query
}

// reconciledStatusClause matches rows whose status after the overdue rule at asOf is one of statuses.
// Past-due sent, viewed and partial rows count as overdue and no longer as their stored status.
func reconciledStatusClause(statuses []invoicing.InvoiceStatus, asOf time.Time) (string, []any) {
	clauses := make([]string, 0, len(statuses))
	args := make([]any, 0, len(statuses)*3)
	for _, status := range statuses {
		switch {
		case status == invoicing.InvoiceStatusOverdue:
			clauses = append(clauses, "status = ? OR (status IN ? AND due_date < ?)")
			args = append(args, status, overdueCandidateStatuses, asOf)
		case status.CanBecomeOverdue():
			clauses = append(clauses, "(status = ? AND due_date >= ?)")
			args = append(args, status, asOf)
		default:
			clauses = append(clauses, "status = ?")
			args = append(args, status)
		}
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func invoicesToDomain(rows []models.InvoiceModel) []invoicing.Invoice {
	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
