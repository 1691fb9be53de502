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

// GormQuoteRepository implements QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForUser finds a quote by ID for its owner
func (r *GormQuoteRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		return nil, storeError("find quote", "quote", err)
	}
	return model.ToDomain(), nil
}

// FindAllForUser finds a user's quotes with filtering and pagination
func (r *GormQuoteRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) ([]invoicing.Quote, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("user_id = ?", userID),
		filter,
	)
	query = quoteSort.list(query, filter.Filter)

	var rows []models.QuoteModel
	if err := query.Preload("Items").Find(&rows).Error; err != nil {
		return nil, storeError("list quotes", "quote", err)
	}
	return quotesToDomain(rows), nil
}

// CountForUser counts a user's quotes matching the filter
func (r *GormQuoteRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("user_id = ?", userID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, storeError("count quotes", "quote", err)
	}
	return count, nil
}

// FindExpirable finds sent quotes past their expiry date across all users
func (r *GormQuoteRepository) FindExpirable(ctx context.Context, before time.Time, limit int) ([]invoicing.Quote, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", invoicing.QuoteStatusSent, before).
		Order("expiry_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.QuoteModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeError("find expirable quotes", "quote", err)
	}
	return quotesToDomain(rows), nil
}

// Save inserts a new quote with its line items
func (r *GormQuoteRepository) Save(ctx context.Context, quote *invoicing.Quote) error {
	model := models.QuoteModelFromDomain(quote)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("save quote", "quote", err)
	}
	return nil
}

// SaveWithLock updates a quote with optimistic locking and replaces its line items
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, quote *invoicing.Quote) error {
	model := models.QuoteModelFromDomain(quote)
	now := time.Now()
	model.UpdatedAt = now
	model.Version = quote.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.QuoteModel{}).
			Where("id = ? AND user_id = ? AND version = ?", quote.ID, quote.UserID, quote.Version).
			Select("*").
			Omit("id", "user_id", "created_at", "Items").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConcurrencyConflictError("quote")
		}

		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteLineItemModel{}).Error; err != nil {
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
		return storeError("update quote", "quote", err)
	}

	quote.Version++
	quote.UpdatedAt = now
	return nil
}

// DeleteForUser removes a quote and its line items
func (r *GormQuoteRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.QuoteModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("quote_id = ?", id).Delete(&models.QuoteLineItemModel{}).Error
	})
	return storeError("delete quote", "quote", err)
}

// applyFilter applies filter options without pagination
func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter invoicing.QuoteFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(quote_number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}
	if filter.Status != nil {
		query = applyQuoteStatus(query, *filter.Status, filter.AsOf)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	return query
}

func quotesToDomain(rows []models.QuoteModel) []invoicing.Quote {
	quotes := make([]invoicing.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes
}

// Ensure GormQuoteRepository implements QuoteRepository
var _ invoicing.QuoteRepository = (*GormQuoteRepository)(nil)

// applyQuoteStatus matches status, reading sent quotes past their expiry date as expired when asOf is set.
func applyQuoteStatus(query *gorm.DB, status invoicing.QuoteStatus, asOf *time.Time) *gorm.DB {
	if asOf == nil {
		return query.Where("status = ?", status)
	}
	switch status {
	case invoicing.QuoteStatusExpired:
		return query.Where("(status = ? OR (status = ? AND expiry_date IS NOT NULL AND expiry_date < ?))",
			status, invoicing.QuoteStatusSent, *asOf)
	case invoicing.QuoteStatusSent:
		return query.Where("status = ? AND (expiry_date IS NULL OR expiry_date >= ?)", status, *asOf)
	default:
		return query.Where("status = ?", status)
	}
}
