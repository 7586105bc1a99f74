package catalog

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalogMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(sqlDB, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return NewRepository(sqlxDB), mock
}

func TestGetLocation(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, address, active, created_at FROM locations WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "active", "created_at"}).
			AddRow(id.String(), "Downtown", "1 Main St", true, time.Now()))

	loc, err := repo.GetLocation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", loc.Name)
	assert.True(t, loc.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLocation_NotFound(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectQuery("FROM locations WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLocation(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestGetResource_LoadsLocations(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	id := uuid.New()
	locA := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, kind, active, created_at FROM resources WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "active", "created_at"}).
			AddRow(id.String(), "Aiko", "artist", true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT location_id FROM resource_locations WHERE resource_id = $1 ORDER BY location_id")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(locA.String()))

	res, err := repo.GetResource(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{locA}, res.LocationIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceServesLocation(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	resID, locID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM resource_locations WHERE resource_id = $1 AND location_id = $2)")).
		WithArgs(resID, locID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ResourceServesLocation(context.Background(), resID, locID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateResource_UnknownLocationRollsBack(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	id := uuid.New()
	locID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO resources").
		WithArgs(sqlmock.AnyArg(), "Aiko", "artist").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "active", "created_at"}).
			AddRow(id.String(), "Aiko", "artist", true, time.Now()))
	mock.ExpectExec("INSERT INTO resource_locations").
		WithArgs(id, locID).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	res, err := repo.CreateResource(context.Background(), "Aiko", "artist", []uuid.UUID{locID})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrLocationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocation_Duplicate(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectQuery("INSERT INTO locations").WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateLocation(context.Background(), "Downtown", "")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestListResources_ByLocation(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	locID := uuid.New()
	resID := uuid.New()

	mock.ExpectQuery("JOIN resource_locations rl ON rl.resource_id = r.id").
		WithArgs(locID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "active", "created_at"}).
			AddRow(resID.String(), "Aiko", "artist", true, time.Now()))
	mock.ExpectQuery("SELECT location_id FROM resource_locations").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(locID.String()))

	resources, err := repo.ListResources(context.Background(), &locID)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, []uuid.UUID{locID}, resources[0].LocationIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
