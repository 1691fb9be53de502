package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the PostgreSQL connection shared by every ledger repository.
type Database struct {
	DB *gorm.DB
}

// Open connects to PostgreSQL, sizes the pool from cfg and verifies the connection.
// Driver errors are translated, so unique violations surface as gorm.ErrDuplicatedKey
// and the numbering and recurring-run guards can match on them.
func Open(ctx context.Context, cfg *config.DatabaseConfig, queryLog logger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 queryLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db}
	if err := d.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Ping reports whether the database answers within ctx.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates the ledger tables from the models. Deployed schemas come from
// the SQL migrations; this serves local and test databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(ledgerModels()...)
}

func ledgerModels() []any {
	return []any{
		&models.QuoteModel{},
		&models.QuoteLineItemModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineItemModel{},
		&models.PaymentModel{},
		&models.RecurringScheduleModel{},
		&models.DocumentSequenceModel{},
	}
}
