package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/internal/contract/repository"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/database"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/testutil"
)

func TestSQLRepository_SQLite(t *testing.T) {
	db := testutil.SQLiteDB(t, repository.Schema(config.DriverSQLite)...)
	exerciseSQLRepository(t, db)
}

func TestSQLRepository_Postgres(t *testing.T) {
	db := testutil.PostgresDB(t, repository.Schema(config.DriverPostgres)...)
	_, err := db.ExecContext(context.Background(), `TRUNCATE contracts, contract_counter`)
	require.NoError(t, err)
	exerciseSQLRepository(t, db)
}

func exerciseSQLRepository(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	counter := repository.NewSQLCounter(db)
	for want := 1; want <= 3; want++ {
		got, err := counter.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	registry := repository.NewSQLRegistry(db)
	_, err := registry.Last(ctx, "42")
	assert.True(t, errors.IsNotFound(err))

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, number := range []string{"00001-ИИИ", "00002-ИИИ"} {
		e := &domain.Entry{
			ContractNumber:   number,
			Client:           "Иванов Иван Иванович",
			TotalAmount:      132000,
			FirstPaymentDate: "2024-03-25",
			DocxPath:         number + ".docx",
			PDFPath:          number + ".pdf",
			CreatedAt:        created.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, registry.Append(ctx, "42", e))
		assert.NotEmpty(t, e.ID)
	}
	require.NoError(t, registry.Append(ctx, "7", &domain.Entry{ContractNumber: "00003-ПП", DocxPath: "c.docx", PDFPath: "c.pdf"}))

	last, err := registry.Last(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "00002-ИИИ", last.ContractNumber)
	assert.Equal(t, "42", last.UserID)
	assert.Equal(t, int64(132000), last.TotalAmount)
	assert.Equal(t, "2024-03-25", last.FirstPaymentDate)
	assert.True(t, created.Add(time.Minute).Equal(last.CreatedAt))
}

func TestSQLCounter_ConcurrentSQLite(t *testing.T) {
	db := testutil.SQLiteDB(t, repository.Schema(config.DriverSQLite)...)
	counter := repository.NewSQLCounter(db)
	ctx := context.Background()

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := counter.Next(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestMigrate(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, repository.Migrate(ctx, db))
	require.NoError(t, repository.Migrate(ctx, db))

	v, err := repository.NewSQLCounter(db).Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSQLCounter_RollsBackOnError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO contract_counter").WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectQuery("UPDATE contract_counter").WillReturnError(assert.AnError)
	mockDB.ExpectRollback()

	counter := repository.NewSQLCounter(database.Wrap(mockDB.DB, logger.Nop()))
	_, err := counter.Next(context.Background())

	assert.ErrorIs(t, err, assert.AnError)
	mockDB.ExpectationsWereMet(t)
}

func TestSQLRegistry_UsesDriverPlaceholders(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE user_id = $1").
		WithArgs("42").
		WillReturnRows(testutil.MockRows(
			"id", "user_id", "contract_number", "client", "total_amount",
			"first_payment_date", "docx_path", "pdf_path", "xlsx_path", "created_at",
		).AddRow("e1", "42", "00009-АБ", "Алексеев Борис", 10000, "2024-01-10", "d.docx", "d.pdf", "", time.Now()))

	registry := repository.NewSQLRegistry(database.Wrap(mockDB.DB, logger.Nop()))
	last, err := registry.Last(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, "00009-АБ", last.ContractNumber)
	mockDB.ExpectationsWereMet(t)
}

func TestSQLRegistry_AppendError(t *testing.T) {
	mockDB := testutil.NewMockDBWithDriver(t, config.DriverSQLite)
	defer mockDB.Close()

	mockDB.ExpectExec("INSERT INTO contracts").
		WithArgs(testutil.AnyUUID{}, "42", "00001", "", int64(0), "", "", "", "", testutil.AnyTime{}).
		WillReturnError(assert.AnError)

	registry := repository.NewSQLRegistry(database.Wrap(mockDB.DB, logger.Nop()))
	err := registry.Append(context.Background(), "42", &domain.Entry{ContractNumber: "00001"})

	assert.ErrorIs(t, err, assert.AnError)
	mockDB.ExpectationsWereMet(t)
}
