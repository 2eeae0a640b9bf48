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

func TestExceptionalAssignmentRepositoryCreateEnforcesSingle(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewExceptionalAssignmentRepository(db)

	travelDate := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

	t.Run("date free", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM exceptional_assignments")).
			WithArgs("unit-1", travelDate).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO exceptional_assignments").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		assignment := &models.ExceptionalAssignment{
			UnitID: "unit-1", RouteID: "route-1", TravelDate: travelDate, Active: true,
			ReasonCode: "COVERAGE", Priority: models.PriorityNormal, AssignedBy: "actor-1",
		}
		err := repo.Create(context.Background(), assignment, true)
		require.NoError(t, err)
		assert.NotEmpty(t, assignment.ID)
	})

	t.Run("date occupied", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM exceptional_assignments")).
			WithArgs("unit-1", travelDate).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), &models.ExceptionalAssignment{
			UnitID: "unit-1", RouteID: "route-1", TravelDate: travelDate, Active: true,
		}, true)
		assert.ErrorIs(t, err, ErrDateAlreadyAssigned)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionalAssignmentRepositoryCreateSkipsCheckForSupervision(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewExceptionalAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exceptional_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.ExceptionalAssignment{
		UnitID: "unit-5", RouteID: "route-1",
		TravelDate: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), Active: true,
	}, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionalAssignmentRepositoryFindActiveInRange(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewExceptionalAssignmentRepository(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "unit_id", "route_id", "travel_date", "active", "reason_code",
		"reason_detail", "priority", "requires_authorization", "authorized_by", "authorized_at",
		"assigned_by", "notes", "unassigned_at", "created_at", "updated_at"}).
		AddRow("ea-1", "unit-1", "route-1", start.AddDate(0, 0, 3), true, "COVERAGE", "", "NORMAL",
			false, nil, nil, "actor-1", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, unit_id, route_id, travel_date")).
		WithArgs("unit-1", start, end, "").
		WillReturnRows(rows)

	assignments, err := repo.FindActiveInRange(context.Background(), "unit-1", start, end, "")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "ea-1", assignments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionalAssignmentRepositoryFindActiveInRangeOpenEnded(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewExceptionalAssignmentRepository(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "unit_id", "route_id", "travel_date", "active", "reason_code",
		"reason_detail", "priority", "requires_authorization", "authorized_by", "authorized_at",
		"assigned_by", "notes", "unassigned_at", "created_at", "updated_at"}).
		AddRow("ea-9", "unit-1", "route-1", start.AddDate(0, 0, 45), true, "COVERAGE", "", "NORMAL",
			false, nil, nil, "actor-1", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, unit_id, route_id, travel_date")).
		WithArgs("unit-1", start, nil, "").
		WillReturnRows(rows)

	// Zero end date drops the upper bound entirely.
	assignments, err := repo.FindActiveInRange(context.Background(), "unit-1", start, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "ea-9", assignments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionalAssignmentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewExceptionalAssignmentRepository(db)

	mock.ExpectExec("UPDATE exceptional_assignments SET reason_code").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.ExceptionalAssignment{ID: "ghost"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
