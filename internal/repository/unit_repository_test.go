package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

func TestUnitRepositoryList(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewUnitRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM units WHERE 1=1 AND role = $1")).
		WithArgs(models.RoleSupervision).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "code", "plate", "description", "operating_mode", "role", "active", "created_at", "updated_at"}).
		AddRow("unit-5", "U-5", "ABC-123", "", "CAMIONETA", "SUPERVISION", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, plate, description, operating_mode, role, active, created_at, updated_at")).
		WithArgs(models.RoleSupervision, 20, 0).
		WillReturnRows(rows)

	role := models.RoleSupervision
	units, total, err := repo.List(context.Background(), models.UnitFilter{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, units, 1)
	assert.Equal(t, models.RoleSupervision, units[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewUnitRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, plate, description, operating_mode, role, active, created_at, updated_at")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewUnitRepository(db)

	mock.ExpectExec("INSERT INTO units").
		WillReturnResult(sqlmock.NewResult(1, 1))

	unit := &models.Unit{Code: "U-9", Plate: "XYZ-999", Role: models.RoleOperational, Active: true}
	err := repo.Create(context.Background(), unit)
	require.NoError(t, err)
	assert.NotEmpty(t, unit.ID)
	assert.False(t, unit.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewUnitRepository(db)

	mock.ExpectExec("UPDATE units SET active = FALSE").
		WithArgs("unit-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "unit-1"))

	mock.ExpectExec("UPDATE units SET active = FALSE").
		WithArgs("ghost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), "ghost"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
