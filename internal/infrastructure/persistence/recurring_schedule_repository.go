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

// GormRecurringScheduleRepository implements RecurringScheduleRepository using GORM
type GormRecurringScheduleRepository struct {
	db *gorm.DB
}

// NewGormRecurringScheduleRepository creates a new GormRecurringScheduleRepository
func NewGormRecurringScheduleRepository(db *gorm.DB) *GormRecurringScheduleRepository {
	return &GormRecurringScheduleRepository{db: db}
}

// FindByIDForUser finds a schedule by ID for its owner
func (r *GormRecurringScheduleRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.RecurringSchedule, error) {
	var model models.RecurringScheduleModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		return nil, storeError("find recurring schedule", "recurring schedule", err)
	}
	return model.ToDomain()
}

// FindAllForUser lists a user's schedules
func (r *GormRecurringScheduleRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]invoicing.RecurringSchedule, error) {
	query := r.db.WithContext(ctx).Model(&models.RecurringScheduleModel{}).Where("user_id = ?", userID)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = scheduleSort.list(query, filter)

	var rows []models.RecurringScheduleModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeError("list recurring schedules", "recurring schedule", err)
	}
	return schedulesToDomain(rows)
}

// FindDue finds active schedules whose next run date has arrived, oldest first
func (r *GormRecurringScheduleRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]invoicing.RecurringSchedule, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND next_run_date <= ?", true, now).
		Order("next_run_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.RecurringScheduleModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeError("find due schedules", "recurring schedule", err)
	}
	return schedulesToDomain(rows)
}

// Save inserts a new schedule
func (r *GormRecurringScheduleRepository) Save(ctx context.Context, schedule *invoicing.RecurringSchedule) error {
	model, err := models.RecurringScheduleModelFromDomain(schedule)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("save recurring schedule", "recurring schedule", err)
	}
	return nil
}

// SaveWithLock updates a schedule with optimistic locking
func (r *GormRecurringScheduleRepository) SaveWithLock(ctx context.Context, schedule *invoicing.RecurringSchedule) error {
	model, err := models.RecurringScheduleModelFromDomain(schedule)
	if err != nil {
		return err
	}
	now := time.Now()
	model.UpdatedAt = now
	model.Version = schedule.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.RecurringScheduleModel{}).
		Where("id = ? AND user_id = ? AND version = ?", schedule.ID, schedule.UserID, schedule.Version).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(model)
	if result.Error != nil {
		return storeError("update recurring schedule", "recurring schedule", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("recurring schedule")
	}

	schedule.Version++
	schedule.UpdatedAt = now
	return nil
}

// DeleteForUser removes a schedule. Generated invoices keep their schedule reference.
func (r *GormRecurringScheduleRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.RecurringScheduleModel{})
	if result.Error != nil {
		return storeError("delete recurring schedule", "recurring schedule", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("recurring schedule")
	}
	return nil
}

func schedulesToDomain(rows []models.RecurringScheduleModel) ([]invoicing.RecurringSchedule, error) {
	schedules := make([]invoicing.RecurringSchedule, 0, len(rows))
	for i := range rows {
		s, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, nil
}

// Ensure GormRecurringScheduleRepository implements RecurringScheduleRepository
var _ invoicing.RecurringScheduleRepository = (*GormRecurringScheduleRepository)(nil)
