package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type stubPermanentRepo struct {
	byID          map[string]models.PermanentAssignment
	created       *models.PermanentAssignment
	createEntry   *models.HistoryEntry
	createErr     error
	updated       *models.PermanentAssignment
	updateEntry   *models.HistoryEntry
	updateCalls   int
	transitioned  []models.PermanentAssignmentState
	transitionLog []models.HistoryEntry
	transitionErr error
	history       map[string][]models.HistoryEntry
}

func (m *stubPermanentRepo) FindByID(ctx context.Context, id string) (*models.PermanentAssignment, error) {
	if a, ok := m.byID[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubPermanentRepo) FindActiveByUnit(ctx context.Context, unitID, excludeID string) (*models.PermanentAssignment, error) {
	for _, a := range m.byID {
		if a.UnitID == unitID && a.State == models.AssignmentActive && a.ID != excludeID {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *stubPermanentRepo) FindDetailByUnit(ctx context.Context, unitID string) (*models.PermanentAssignmentDetail, error) {
	active, _ := m.FindActiveByUnit(ctx, unitID, "")
	if active == nil {
		return nil, nil
	}
	return &models.PermanentAssignmentDetail{PermanentAssignment: *active}, nil
}

func (m *stubPermanentRepo) Create(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	assignment.ID = "pa-new"
	assignment.AssignedAt = time.Now().UTC()
	m.created = assignment
	m.createEntry = entry
	return nil
}

func (m *stubPermanentRepo) Update(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error {
	m.updateCalls++
	m.updated = assignment
	m.updateEntry = entry
	return nil
}

func (m *stubPermanentRepo) Transition(ctx context.Context, assignment *models.PermanentAssignment, state models.PermanentAssignmentState, entry *models.HistoryEntry) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	assignment.State = state
	m.transitioned = append(m.transitioned, state)
	if entry != nil {
		m.transitionLog = append(m.transitionLog, *entry)
	}
	return nil
}

func (m *stubPermanentRepo) ListHistory(ctx context.Context, assignmentID string) ([]models.HistoryEntry, error) {
	return m.history[assignmentID], nil
}

type stubExecutionCounter struct {
	inProgress int
}

func (m *stubExecutionCounter) CountInProgressExecutions(ctx context.Context, unitID, itineraryID string) (int, error) {
	return m.inProgress, nil
}

func newPermanentFixture() (*PermanentAssignmentService, *stubPermanentRepo, *stubExecutionCounter, *stubAvailabilityValidator) {
	units := &stubUnitReader{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-1", Active: true},
	}}
	itineraries := &stubItineraryReader{itineraries: map[string]*models.Itinerary{
		"itin-1": {ID: "itin-1", Code: "IC", Name: "Circuito Centro", Status: models.ItineraryActive},
		"itin-x": {ID: "itin-x", Code: "IX", Name: "Circuito Retirado", Status: models.ItineraryInactive},
	}}
	executions := &stubExecutionCounter{}
	repo := &stubPermanentRepo{byID: map[string]models.PermanentAssignment{}, history: map[string][]models.HistoryEntry{}}
	availability := &stubAvailabilityValidator{}
	svc := NewPermanentAssignmentService(units, itineraries, executions, repo, availability, nil, zap.NewNop())
	return svc, repo, executions, availability
}

func TestCreatePermanentAssignment(t *testing.T) {
	svc, repo, _, availability := newPermanentFixture()

	assignment, warnings, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
		UnitID:      "unit-1",
		ItineraryID: "itin-1",
		Frequency:   "WEEKDAYS",
	}, "actor-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)

	assert.Equal(t, models.AssignmentActive, assignment.State)
	assert.Equal(t, []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES"}, []string(assignment.OperatingDays))
	assert.Empty(t, warnings)

	require.NotNil(t, repo.createEntry)
	assert.Equal(t, models.HistoryAssigned, repo.createEntry.Action)
	assert.Equal(t, "actor-1", repo.createEntry.ActorID)
	assert.Contains(t, repo.createEntry.Detail, "Circuito Centro")
	assert.Equal(t, models.KindPermanent, availability.lastReq.Kind)
}

func TestCreatePermanentAssignmentWarnsAboutScheduledExceptionals(t *testing.T) {
	units := &stubUnitReader{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-1", Active: true},
	}}
	routes := &stubRouteReader{routes: map[string]*models.Route{
		"route-1": {ID: "route-1", Code: "RN", Name: "Ruta Norte", Status: models.RouteActive},
	}}
	itineraries := &stubItineraryReader{itineraries: map[string]*models.Itinerary{
		"itin-1": {ID: "itin-1", Code: "IC", Name: "Circuito Centro", Status: models.ItineraryActive},
	}}
	futureTravel := dateOnly(time.Now().UTC().AddDate(0, 0, 10))
	exceptionals := &stubExceptionalReader{byUnit: map[string][]models.ExceptionalAssignment{
		"unit-1": {{ID: "ea-1", UnitID: "unit-1", RouteID: "route-1", TravelDate: futureTravel, Active: true}},
	}}
	permanents := &stubPermanentReader{active: map[string]*models.PermanentAssignment{}}
	availability := NewAvailabilityService(units, routes, itineraries, permanents, exceptionals, 92, zap.NewNop())

	repo := &stubPermanentRepo{byID: map[string]models.PermanentAssignment{}, history: map[string][]models.HistoryEntry{}}
	svc := NewPermanentAssignmentService(units, itineraries, &stubExecutionCounter{}, repo, availability, nil, zap.NewNop())

	assignment, warnings, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
		UnitID: "unit-1", ItineraryID: "itin-1", Frequency: "DAILY",
	}, "actor-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)

	// The route booked ten days out takes precedence on its day, so the
	// create must come back with a warning naming it.
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "Ruta Norte (RN)")
	assert.Contains(t, warnings[0], futureTravel.Format("2006-01-02"))
}

func TestCreatePermanentAssignmentCustomDays(t *testing.T) {
	svc, _, _, _ := newPermanentFixture()

	t.Run("custom requires days", func(t *testing.T) {
		_, _, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
			UnitID: "unit-1", ItineraryID: "itin-1", Frequency: "CUSTOM",
		}, "actor-1")
		assertErrCode(t, err, appErrors.ErrValidation.Code)
	})

	t.Run("custom rejects unknown day names", func(t *testing.T) {
		_, _, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
			UnitID: "unit-1", ItineraryID: "itin-1", Frequency: "CUSTOM",
			OperatingDays: []string{"LUNES", "MONDAY"},
		}, "actor-1")
		assertErrCode(t, err, appErrors.ErrValidation.Code)
	})

	t.Run("custom deduplicates", func(t *testing.T) {
		assignment, _, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
			UnitID: "unit-1", ItineraryID: "itin-1", Frequency: "CUSTOM",
			OperatingDays: []string{"LUNES", "LUNES", "VIERNES"},
		}, "actor-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"LUNES", "VIERNES"}, []string(assignment.OperatingDays))
	})
}

func TestCreatePermanentAssignmentRejectsInactiveItinerary(t *testing.T) {
	svc, _, _, _ := newPermanentFixture()

	_, _, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
		UnitID: "unit-1", ItineraryID: "itin-x", Frequency: "DAILY",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestCreatePermanentAssignmentMapsUniquenessRace(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.createErr = repository.ErrActiveAssignmentExists

	_, _, err := svc.Create(context.Background(), CreatePermanentAssignmentRequest{
		UnitID: "unit-1", ItineraryID: "itin-1", Frequency: "DAILY",
	}, "actor-1")
	assertErrCode(t, err, appErrors.ErrConflict.Code)
}

func TestUpdatePermanentAssignmentNoOpWritesNothing(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{
		ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1",
		State: models.AssignmentActive, Frequency: models.FrequencyDaily,
		OperatingDays: pq.StringArray(models.OperatingDaysFor(models.FrequencyDaily, nil)),
		Notes:         "as is",
	}

	same := "as is"
	freq := "DAILY"
	_, err := svc.Update(context.Background(), "pa-1", UpdatePermanentAssignmentRequest{
		Frequency: &freq,
		Notes:     &same,
	}, "actor-1")
	require.NoError(t, err)
	assert.Zero(t, repo.updateCalls, "identical payload must not touch the row or history")
}

func TestUpdatePermanentAssignmentRecordsFieldDiff(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{
		ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1",
		State: models.AssignmentActive, Frequency: models.FrequencyDaily,
		OperatingDays: pq.StringArray(models.OperatingDaysFor(models.FrequencyDaily, nil)),
	}

	freq := "WEEKENDS"
	updated, err := svc.Update(context.Background(), "pa-1", UpdatePermanentAssignmentRequest{Frequency: &freq}, "actor-1")
	require.NoError(t, err)

	assert.Equal(t, models.FrequencyWeekends, updated.Frequency)
	assert.Equal(t, []string{"SABADO", "DOMINGO"}, []string(updated.OperatingDays))
	require.NotNil(t, repo.updateEntry)
	assert.Equal(t, models.HistoryUpdated, repo.updateEntry.Action)
	assert.Contains(t, repo.updateEntry.Detail, "WEEKENDS")
}

func TestUpdatePermanentAssignmentRejectsNonActive(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{ID: "pa-1", UnitID: "unit-1", State: models.AssignmentUnassigned}

	notes := "too late"
	_, err := svc.Update(context.Background(), "pa-1", UpdatePermanentAssignmentRequest{Notes: &notes}, "actor-1")
	assertErrCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestUnassignPermanentAssignment(t *testing.T) {
	svc, repo, executions, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{
		ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentActive,
	}

	t.Run("blocked while execution runs", func(t *testing.T) {
		executions.inProgress = 1
		_, err := svc.Unassign(context.Background(), "pa-1", "maintenance", "actor-1")
		assertErrCode(t, err, appErrors.ErrConflict.Code)
	})

	t.Run("success", func(t *testing.T) {
		executions.inProgress = 0
		assignment, err := svc.Unassign(context.Background(), "pa-1", "maintenance", "actor-1")
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentUnassigned, assignment.State)
		require.Len(t, repo.transitionLog, 1)
		assert.Equal(t, models.HistoryUnassigned, repo.transitionLog[0].Action)
		assert.Contains(t, repo.transitionLog[0].Detail, "maintenance")
	})

	t.Run("only active can be unassigned", func(t *testing.T) {
		repo.byID["pa-2"] = models.PermanentAssignment{ID: "pa-2", UnitID: "unit-1", State: models.AssignmentObsolete}
		_, err := svc.Unassign(context.Background(), "pa-2", "", "actor-1")
		assertErrCode(t, err, appErrors.ErrPreconditionFailed.Code)
	})
}

func TestReactivatePermanentAssignment(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{
		ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentUnassigned,
	}

	t.Run("success", func(t *testing.T) {
		assignment, err := svc.Reactivate(context.Background(), "pa-1", "actor-1")
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentActive, assignment.State)
		require.Len(t, repo.transitionLog, 1)
		assert.Equal(t, models.HistoryReactivated, repo.transitionLog[0].Action)
	})

	t.Run("slot already taken", func(t *testing.T) {
		repo.transitionErr = repository.ErrActiveAssignmentExists
		repo.byID["pa-3"] = models.PermanentAssignment{
			ID: "pa-3", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentUnassigned,
		}
		_, err := svc.Reactivate(context.Background(), "pa-3", "actor-1")
		assertErrCode(t, err, appErrors.ErrConflict.Code)
		repo.transitionErr = nil
	})

	t.Run("itinerary retired since", func(t *testing.T) {
		repo.byID["pa-4"] = models.PermanentAssignment{
			ID: "pa-4", UnitID: "unit-1", ItineraryID: "itin-x", State: models.AssignmentUnassigned,
		}
		_, err := svc.Reactivate(context.Background(), "pa-4", "actor-1")
		assertErrCode(t, err, appErrors.ErrPreconditionFailed.Code)
	})

	t.Run("only unassigned can be reactivated", func(t *testing.T) {
		repo.byID["pa-5"] = models.PermanentAssignment{ID: "pa-5", UnitID: "unit-1", State: models.AssignmentObsolete}
		_, err := svc.Reactivate(context.Background(), "pa-5", "actor-1")
		assertErrCode(t, err, appErrors.ErrPreconditionFailed.Code)
	})
}

func TestMarkObsoletePermanentAssignment(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{
		ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentUnassigned,
	}
	repo.byID["pa-2"] = models.PermanentAssignment{
		ID: "pa-2", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentActive,
	}

	t.Run("success from unassigned", func(t *testing.T) {
		assignment, err := svc.MarkObsolete(context.Background(), "pa-1", "vehicle sold", "actor-1")
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentObsolete, assignment.State)
		require.Len(t, repo.transitionLog, 1)
		assert.Equal(t, models.HistoryObsoleted, repo.transitionLog[0].Action)
		assert.Contains(t, repo.transitionLog[0].Detail, "vehicle sold")
	})

	t.Run("active cannot skip unassigned", func(t *testing.T) {
		_, err := svc.MarkObsolete(context.Background(), "pa-2", "", "actor-1")
		assertErrCode(t, err, appErrors.ErrPreconditionFailed.Code)
	})
}

func TestPermanentAssignmentHistory(t *testing.T) {
	svc, repo, _, _ := newPermanentFixture()
	repo.byID["pa-1"] = models.PermanentAssignment{ID: "pa-1", UnitID: "unit-1", State: models.AssignmentActive}
	repo.history["pa-1"] = []models.HistoryEntry{
		{ID: "h-1", AssignmentID: "pa-1", Action: models.HistoryAssigned},
		{ID: "h-2", AssignmentID: "pa-1", Action: models.HistoryUpdated},
	}

	entries, err := svc.History(context.Background(), "pa-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryAssigned, entries[0].Action)

	_, err = svc.History(context.Background(), "ghost")
	assertErrCode(t, err, appErrors.ErrNotFound.Code)
}
