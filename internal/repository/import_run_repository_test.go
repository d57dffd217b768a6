package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"product-import-service/internal/models"
	"product-import-service/internal/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestRecordRun_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewImportRunRepository(gormDB)

	run := &models.ImportRun{
		TenantID:  "tenant-1",
		SessionID: uuid.NewString(),
		FileName:  "products.csv",
		TotalRows: 3,
		Attempted: 3,
		Succeeded: 2,
		Failed:    1,
		Results:   datatypes.JSON(`[{"sku":"B1","success":false}]`),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "product_import_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	err := repo.RecordRun(context.Background(), run)

	assert.NoError(t, err)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewImportRunRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "product_import_runs"`)).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "product_import_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "session_id", "file_name", "total_rows", "attempted", "succeeded", "failed", "results", "created_at"}).
			AddRow(id.String(), "tenant-1", "session-1", "products.csv", 3, 3, 2, 1, []byte(`[]`), now))

	runs, total, err := repo.ListRuns(context.Background(), "tenant-1", 1, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 2, runs[0].Succeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSKUExistsForTenant(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProductsRepository(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products"`)).
		WithArgs("tenant-1", "W1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.SKUExistsForTenant(context.Background(), "tenant-1", "W1")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProductsRepository(gormDB, nil)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	product, err := repo.GetProductByID(context.Background(), "tenant-1", id)

	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Nil(t, product)
}
