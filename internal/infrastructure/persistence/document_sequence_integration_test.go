//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/migration"
	"github.com/RACCHUS/BookkeepingApp-sub007/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a disposable Postgres, applies the embedded migrations and returns a pool
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)

	m, err := migration.NewFromFS(sqlDB, migrations.FS, ".", nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestGormDocumentSequence_ConcurrentNext(t *testing.T) {
	db := newPostgresTestDB(t)
	seq := NewGormDocumentSequence(db)
	ctx := context.Background()
	userID := uuid.New()

	const workers = 50
	values := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, userID, invoicing.DocumentTypeInvoice, 2025)
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, workers)
	for v := range values {
		assert.False(t, seen[v], "value %d handed out twice", v)
		seen[v] = true
	}
	require.Len(t, seen, workers)
	for want := int64(1); want <= workers; want++ {
		assert.True(t, seen[want], "missing value %d", want)
	}
}

func TestGormInvoiceRepository_Postgres(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()
	repo := NewGormInvoiceRepository(db)
	userID := uuid.New()

	t.Run("invoice numbers are unique per user", func(t *testing.T) {
		first := newTestInvoice(t, userID, "INV-2025-0001")
		require.NoError(t, repo.Save(ctx, first))

		dup := newTestInvoice(t, userID, "INV-2025-0001")
		err := repo.Save(ctx, dup)
		assert.Equal(t, shared.CodeConcurrencyConflict, shared.ErrorCode(err))

		other := newTestInvoice(t, uuid.New(), "INV-2025-0001")
		assert.NoError(t, repo.Save(ctx, other))
	})

	t.Run("money keeps four decimal places", func(t *testing.T) {
		inv := newTestInvoice(t, userID, "INV-2025-0002")
		require.NoError(t, inv.Send(repoTestNow))
		require.NoError(t, repo.Save(ctx, inv))

		p, err := inv.RecordPayment(invoicing.PaymentInput{Amount: decimal.RequireFromString("12.34")}, repoTestNow)
		require.NoError(t, err)
		require.NoError(t, NewGormPaymentRepository(db).Save(ctx, p))
		require.NoError(t, repo.SaveWithLock(ctx, inv))

		found, err := repo.FindByIDForUser(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "112.66", found.BalanceDue.StringFixed(2))
		assert.Equal(t, invoicing.InvoiceStatusPartial, found.Status)
	})
}
