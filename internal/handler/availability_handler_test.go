package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
)

type unitFinderMock struct {
	units map[string]*models.Unit
}

func (m *unitFinderMock) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	unit, ok := m.units[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return unit, nil
}

type routeFinderMock struct {
	routes map[string]*models.Route
}

func (m *routeFinderMock) FindByID(ctx context.Context, id string) (*models.Route, error) {
	route, ok := m.routes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return route, nil
}

type itineraryFinderMock struct {
	itineraries map[string]*models.Itinerary
}

func (m *itineraryFinderMock) FindByID(ctx context.Context, id string) (*models.Itinerary, error) {
	itinerary, ok := m.itineraries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return itinerary, nil
}

type permanentFinderMock struct {
	active map[string]*models.PermanentAssignment
}

func (m *permanentFinderMock) FindActiveByUnit(ctx context.Context, unitID, excludeID string) (*models.PermanentAssignment, error) {
	assignment, ok := m.active[unitID]
	if !ok || assignment.ID == excludeID {
		return nil, nil
	}
	return assignment, nil
}

type exceptionalFinderMock struct {
	byUnit map[string][]models.ExceptionalAssignment
}

func (m *exceptionalFinderMock) FindActiveInRange(ctx context.Context, unitID string, start, end time.Time, excludeID string) ([]models.ExceptionalAssignment, error) {
	var result []models.ExceptionalAssignment
	for _, a := range m.byUnit[unitID] {
		if a.ID == excludeID || a.TravelDate.Before(start) {
			continue
		}
		if !end.IsZero() && a.TravelDate.After(end) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func newAvailabilityTestService(units *unitFinderMock, permanents *permanentFinderMock, exceptionals *exceptionalFinderMock) *service.AvailabilityService {
	return service.NewAvailabilityService(
		units,
		&routeFinderMock{routes: map[string]*models.Route{}},
		&itineraryFinderMock{itineraries: map[string]*models.Itinerary{}},
		permanents,
		exceptionals,
		92,
		nil,
	)
}

func performRequest(h gin.HandlerFunc, method, target string, params gin.Params) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, nil)
	c.Request = req
	c.Params = params
	h(c)
	return w
}

func TestAvailabilityHandlerValidateReportsPermanentConflict(t *testing.T) {
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	permanents := &permanentFinderMock{active: map[string]*models.PermanentAssignment{
		"unit-1": {ID: "pa-1", UnitID: "unit-1", ItineraryID: "itin-1", State: models.AssignmentActive},
	}}
	svc := newAvailabilityTestService(units, permanents, &exceptionalFinderMock{})
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.Validate, http.MethodGet, "/units/unit-1/availability?type=PERMANENT&from=2024-06-10", gin.Params{{Key: "id", Value: "unit-1"}})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.AvailabilityResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Permitted)
	require.Len(t, envelope.Data.Conflicts, 1)
	assert.Contains(t, envelope.Data.Conflicts[0], "active permanent assignment")
}

func TestAvailabilityHandlerValidateRequiresType(t *testing.T) {
	svc := newAvailabilityTestService(&unitFinderMock{units: map[string]*models.Unit{}}, &permanentFinderMock{}, &exceptionalFinderMock{})
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.Validate, http.MethodGet, "/units/unit-1/availability?from=2024-06-10", gin.Params{{Key: "id", Value: "unit-1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerResolveDayFree(t *testing.T) {
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	svc := newAvailabilityTestService(units, &permanentFinderMock{}, &exceptionalFinderMock{})
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.ResolveDay, http.MethodGet, "/units/unit-1/availability/day?date=2024-06-10", gin.Params{{Key: "id", Value: "unit-1"}})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.DayResolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.KindFree, envelope.Data.Kind)
	assert.Equal(t, "no assignment for this date", envelope.Data.Details)
}

func TestAvailabilityHandlerResolveDayRejectsBadDate(t *testing.T) {
	svc := newAvailabilityTestService(&unitFinderMock{units: map[string]*models.Unit{}}, &permanentFinderMock{}, &exceptionalFinderMock{})
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.ResolveDay, http.MethodGet, "/units/unit-1/availability/day?date=junk", gin.Params{{Key: "id", Value: "unit-1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerScanRangeSummary(t *testing.T) {
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	exceptionals := &exceptionalFinderMock{byUnit: map[string][]models.ExceptionalAssignment{
		"unit-1": {{ID: "ea-1", UnitID: "unit-1", RouteID: "route-1", TravelDate: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), Active: true}},
	}}
	svc := newAvailabilityTestService(units, &permanentFinderMock{}, exceptionals)
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.ScanRange, http.MethodGet, "/units/unit-1/availability/range?start=2024-06-10&end=2024-06-12", gin.Params{{Key: "id", Value: "unit-1"}})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.RangeAvailability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "2/3 days available", envelope.Data.Summary)
	assert.Len(t, envelope.Data.BusyDays, 1)
}

func TestAvailabilityHandlerScanRangeRejectsOversizedWindow(t *testing.T) {
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	svc := newAvailabilityTestService(units, &permanentFinderMock{}, &exceptionalFinderMock{})
	h := NewAvailabilityHandler(svc, service.NewMetricsService())

	w := performRequest(h.ScanRange, http.MethodGet, "/units/unit-1/availability/range?start=2024-01-01&end=2024-12-31", gin.Params{{Key: "id", Value: "unit-1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
