package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type stubExceptionalRepo struct {
	byID          map[string]models.ExceptionalAssignment
	created       *models.ExceptionalAssignment
	enforceSingle *bool
	createErr     error
	updated       *models.ExceptionalAssignment
}

func (m *stubExceptionalRepo) FindByID(ctx context.Context, id string) (*models.ExceptionalAssignment, error) {
	if a, ok := m.byID[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubExceptionalRepo) List(ctx context.Context, filter models.ExceptionalAssignmentFilter) ([]models.ExceptionalAssignmentDetail, int, error) {
	return nil, 0, nil
}

func (m *stubExceptionalRepo) Create(ctx context.Context, assignment *models.ExceptionalAssignment, enforceSingle bool) error {
	if m.createErr != nil {
		return m.createErr
	}
	assignment.ID = "ea-new"
	m.created = assignment
	m.enforceSingle = &enforceSingle
	return nil
}

func (m *stubExceptionalRepo) Update(ctx context.Context, assignment *models.ExceptionalAssignment) error {
	m.updated = assignment
	return nil
}

type stubAvailabilityValidator struct {
	result  *models.AvailabilityResult
	lastReq AvailabilityRequest
}

func (m *stubAvailabilityValidator) Validate(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityResult, error) {
	m.lastReq = req
	if m.result != nil {
		return m.result, nil
	}
	return &models.AvailabilityResult{Permitted: true, Warnings: []string{}, Conflicts: []string{}}, nil
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}

func newExceptionalFixture() (*ExceptionalAssignmentService, *stubUnitReader, *stubExceptionalRepo, *stubAvailabilityValidator) {
	units := &stubUnitReader{units: map[string]*models.Unit{
		"unit-op":  {ID: "unit-op", Code: "U-OP", Active: true},
		"unit-sup": {ID: "unit-sup", Code: "U-SUP", Active: true, OperatingMode: strPtr("CAMIONETA")},
	}}
	routes := &stubRouteReader{routes: map[string]*models.Route{
		"route-1": {ID: "route-1", Code: "RN", Name: "Ruta Norte", Status: models.RouteActive},
		"route-x": {ID: "route-x", Code: "RX", Name: "Ruta Cerrada", Status: models.RouteSuspended},
	}}
	repo := &stubExceptionalRepo{byID: map[string]models.ExceptionalAssignment{}}
	availability := &stubAvailabilityValidator{}
	svc := NewExceptionalAssignmentService(units, routes, repo, availability, nil, zap.NewNop())
	return svc, units, repo, availability
}

func assertErrCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, code, appErr.Code)
}

func TestAssignExceptionalSuccessSynthesizesNotes(t *testing.T) {
	svc, _, repo, availability := newExceptionalFixture()
	availability.result = &models.AvailabilityResult{
		Permitted: true,
		Warnings:  []string{"itinerary Circuito Centro does not operate on DOMINGO; no conflict"},
	}

	date := futureDate()
	assignment, warnings, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-op",
		RouteID:    "route-1",
		TravelDate: date,
		ReasonCode: "COVERAGE",
	}, "actor-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)

	assert.True(t, assignment.Active)
	assert.Equal(t, models.PriorityNormal, assignment.Priority)
	assert.Equal(t, "actor-1", assignment.AssignedBy)
	assert.Contains(t, assignment.Notes, "Exceptional route RN assigned to unit U-OP for "+date)
	assert.Contains(t, assignment.Notes, "does not operate on DOMINGO")
	assert.Len(t, warnings, 1)

	require.NotNil(t, repo.enforceSingle)
	assert.True(t, *repo.enforceSingle, "operational units get the per-date uniqueness guard")
	assert.Equal(t, models.KindExceptional, availability.lastReq.Kind)
}

func TestAssignExceptionalSupervisionSkipsSingleGuard(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-sup",
		RouteID:    "route-1",
		TravelDate: futureDate(),
		ReasonCode: "SUPPORT",
	}, "actor-1")
	require.NoError(t, err)
	require.NotNil(t, repo.enforceSingle)
	assert.False(t, *repo.enforceSingle)
}

func TestAssignExceptionalConflictFromValidator(t *testing.T) {
	svc, _, _, availability := newExceptionalFixture()
	availability.result = &models.AvailabilityResult{
		Permitted: false,
		Conflicts: []string{"unit already has exceptional route Ruta Sur (RS) assigned for 2026-09-04"},
	}

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-op",
		RouteID:    "route-1",
		TravelDate: futureDate(),
		ReasonCode: "COVERAGE",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrConflict.Code)
	assert.Contains(t, err.Error(), "Ruta Sur")
}

func TestAssignExceptionalRejectsPastDate(t *testing.T) {
	svc, _, _, _ := newExceptionalFixture()

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-op",
		RouteID:    "route-1",
		TravelDate: "2020-01-01",
		ReasonCode: "COVERAGE",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestAssignExceptionalRejectsInactiveRoute(t *testing.T) {
	svc, _, _, _ := newExceptionalFixture()

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-op",
		RouteID:    "route-x",
		TravelDate: futureDate(),
		ReasonCode: "COVERAGE",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestAssignExceptionalRequiresAuthorizer(t *testing.T) {
	svc, _, _, _ := newExceptionalFixture()

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:                "unit-op",
		RouteID:               "route-1",
		TravelDate:            futureDate(),
		ReasonCode:            "COVERAGE",
		RequiresAuthorization: true,
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestAssignExceptionalMapsRepositoryRace(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()
	repo.createErr = repository.ErrDateAlreadyAssigned

	_, _, err := svc.Assign(context.Background(), AssignExceptionalRouteRequest{
		UnitID:     "unit-op",
		RouteID:    "route-1",
		TravelDate: futureDate(),
		ReasonCode: "COVERAGE",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrConflict.Code)
}

func TestCancelExceptional(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()
	future := time.Now().UTC().AddDate(0, 0, 3)
	repo.byID["ea-1"] = models.ExceptionalAssignment{ID: "ea-1", UnitID: "unit-op", TravelDate: future, Active: true}
	repo.byID["ea-done"] = models.ExceptionalAssignment{ID: "ea-done", UnitID: "unit-op", TravelDate: future, Active: false}
	repo.byID["ea-past"] = models.ExceptionalAssignment{ID: "ea-past", UnitID: "unit-op", TravelDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Active: true}

	t.Run("success", func(t *testing.T) {
		msg, err := svc.Cancel(context.Background(), "ea-1", "actor-1")
		require.NoError(t, err)
		assert.Contains(t, msg, "cancelled")
		require.NotNil(t, repo.updated)
		assert.False(t, repo.updated.Active)
		assert.NotNil(t, repo.updated.UnassignedAt)
	})

	t.Run("already cancelled", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), "ea-done", "actor-1")
		assertErrCode(t, err, appErrors.ErrValidation.Code)
	})

	t.Run("travel date passed", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), "ea-past", "actor-1")
		assertErrCode(t, err, appErrors.ErrValidation.Code)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), "ghost", "actor-1")
		assertErrCode(t, err, appErrors.ErrNotFound.Code)
	})
}

func TestUpdateExceptionalPatchesDescriptiveFieldsOnly(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()
	future := time.Now().UTC().AddDate(0, 0, 3)
	repo.byID["ea-1"] = models.ExceptionalAssignment{
		ID: "ea-1", UnitID: "unit-op", RouteID: "route-1", TravelDate: future,
		Active: true, ReasonCode: "COVERAGE", Priority: models.PriorityNormal,
	}

	priority := "URGENT"
	notes := "driver swapped"
	updated, err := svc.Update(context.Background(), "ea-1", UpdateExceptionalRouteRequest{
		Priority: &priority,
		Notes:    &notes,
	}, "actor-2")
	require.NoError(t, err)

	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, "driver swapped", updated.Notes)
	assert.Equal(t, "unit-op", updated.UnitID)
	assert.Equal(t, "route-1", updated.RouteID)
	assert.Equal(t, future, updated.TravelDate)
}

func TestUpdateExceptionalAuthorizationStamping(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()
	future := time.Now().UTC().AddDate(0, 0, 3)
	repo.byID["ea-1"] = models.ExceptionalAssignment{
		ID: "ea-1", UnitID: "unit-op", RouteID: "route-1", TravelDate: future,
		Active: true, ReasonCode: "COVERAGE", Priority: models.PriorityNormal,
	}

	t.Run("named authorizer stamps the timestamp", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), "ea-1", UpdateExceptionalRouteRequest{
			AuthorizedBy: strPtr("supervisor-1"),
		}, "actor-2")
		require.NoError(t, err)
		require.NotNil(t, updated.AuthorizedBy)
		assert.Equal(t, "supervisor-1", *updated.AuthorizedBy)
		assert.NotNil(t, updated.AuthorizedAt)
	})

	t.Run("empty authorizer does not stamp", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), "ea-1", UpdateExceptionalRouteRequest{
			AuthorizedBy: strPtr(""),
		}, "actor-2")
		require.NoError(t, err)
		assert.Nil(t, updated.AuthorizedAt)
	})
}

func TestUpdateExceptionalRejectsCancelled(t *testing.T) {
	svc, _, repo, _ := newExceptionalFixture()
	repo.byID["ea-1"] = models.ExceptionalAssignment{ID: "ea-1", Active: false}

	notes := "late edit"
	_, err := svc.Update(context.Background(), "ea-1", UpdateExceptionalRouteRequest{Notes: &notes}, "actor-2")
	assertErrCode(t, err, appErrors.ErrValidation.Code)
}
