package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/internal/staff/repository"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/testutil"
)

var tenantCols = []string{"id", "name", "slug", "timezone", "is_active"}

func newTenantRepo(t *testing.T) (*repository.TenantRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	return repository.NewTenantRepository(database.Wrap(mockDB.DB, logger.NewNop())), mockDB
}

func TestTenantRepository_ListActive(t *testing.T) {
	repo, mockDB := newTenantRepo(t)

	mockDB.ExpectQuery("FROM tenants WHERE is_active ORDER BY slug").
		WillReturnRows(testutil.MockRows(tenantCols...).
			AddRow("t-1", "North Depot", "north", "Europe/Berlin", true).
			AddRow("t-2", "South Yard", "south", "Asia/Jakarta", true))

	tenants, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "north", tenants[0].Slug)
	assert.Equal(t, "Asia/Jakarta", tenants[1].Timezone)
	mockDB.ExpectationsWereMet(t)
}

func TestTenantRepository_GetByID_NotFound(t *testing.T) {
	repo, mockDB := newTenantRepo(t)

	mockDB.ExpectQuery("FROM tenants WHERE id = $1").
		WithArgs("t-missing").
		WillReturnRows(testutil.MockRows(tenantCols...))

	_, err := repo.GetByID(context.Background(), "t-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestTenantRepository_UpsertDefaultsTimezone(t *testing.T) {
	repo, mockDB := newTenantRepo(t)

	mockDB.ExpectExec("INSERT INTO tenants").
		WithArgs("t-3", "East Dock", "east", "UTC", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tn := &domain.Tenant{ID: "t-3", Name: "East Dock", Slug: "east", Active: true}
	require.NoError(t, repo.Upsert(context.Background(), tn))
	assert.Equal(t, "UTC", tn.Timezone)
	mockDB.ExpectationsWereMet(t)
}
