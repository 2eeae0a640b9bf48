package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-fuel-api/internal/middleware"
	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
)

type exceptionalRepoMock struct {
	byID          map[string]*models.ExceptionalAssignment
	created       *models.ExceptionalAssignment
	enforceSingle bool
}

func (m *exceptionalRepoMock) FindByID(ctx context.Context, id string) (*models.ExceptionalAssignment, error) {
	assignment, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return assignment, nil
}

func (m *exceptionalRepoMock) List(ctx context.Context, filter models.ExceptionalAssignmentFilter) ([]models.ExceptionalAssignmentDetail, int, error) {
	return []models.ExceptionalAssignmentDetail{}, 0, nil
}

func (m *exceptionalRepoMock) Create(ctx context.Context, assignment *models.ExceptionalAssignment, enforceSingle bool) error {
	assignment.ID = "ea-new"
	m.created = assignment
	m.enforceSingle = enforceSingle
	return nil
}

func (m *exceptionalRepoMock) Update(ctx context.Context, assignment *models.ExceptionalAssignment) error {
	m.byID[assignment.ID] = assignment
	return nil
}

func performJSONRequest(h gin.HandlerFunc, method, target string, payload interface{}) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleOperator})
	h(c)
	return w
}

func TestExceptionalAssignmentHandlerAssignSurfacesWarnings(t *testing.T) {
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	routes := &routeFinderMock{routes: map[string]*models.Route{
		"route-1": {ID: "route-1", Code: "RN", Name: "Ruta Norte", Status: models.RouteActive},
	}}
	itineraries := &itineraryFinderMock{itineraries: map[string]*models.Itinerary{
		"itin-1": {ID: "itin-1", Code: "CC", Name: "Circuito Centro", Status: models.ItineraryActive},
	}}
	permanents := &permanentFinderMock{active: map[string]*models.PermanentAssignment{
		"unit-1": {
			ID:            "pa-1",
			UnitID:        "unit-1",
			ItineraryID:   "itin-1",
			State:         models.AssignmentActive,
			Frequency:     models.FrequencyDaily,
			OperatingDays: pq.StringArray(models.OperatingDaysFor(models.FrequencyDaily, nil)),
		},
	}}
	exceptionals := &exceptionalFinderMock{}
	repo := &exceptionalRepoMock{byID: map[string]*models.ExceptionalAssignment{}}

	availability := service.NewAvailabilityService(units, routes, itineraries, permanents, exceptionals, 92, nil)
	svc := service.NewExceptionalAssignmentService(units, routes, repo, availability, nil, nil)
	h := NewExceptionalAssignmentHandler(svc, service.NewMetricsService())

	payload := service.AssignExceptionalRouteRequest{
		UnitID:     "unit-1",
		RouteID:    "route-1",
		TravelDate: time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02"),
		ReasonCode: "EMERGENCY_COVERAGE",
	}
	w := performJSONRequest(h.Assign, http.MethodPost, "/exceptional-assignments", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var envelope struct {
		Data models.ExceptionalAssignment `json:"data"`
		Meta map[string]interface{}       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ea-new", envelope.Data.ID)
	assert.Equal(t, "user-1", envelope.Data.AssignedBy)

	warnings, ok := envelope.Meta["warnings"].([]interface{})
	require.True(t, ok, "warnings missing from meta: %v", envelope.Meta)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "overrides itinerary Circuito Centro")

	assert.True(t, repo.enforceSingle)
}

func TestExceptionalAssignmentHandlerAssignConflict(t *testing.T) {
	travelDate := time.Now().UTC().AddDate(0, 0, 7)
	units := &unitFinderMock{units: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Code: "U-01", Active: true, Role: models.RoleOperational},
	}}
	routes := &routeFinderMock{routes: map[string]*models.Route{
		"route-1": {ID: "route-1", Code: "RN", Name: "Ruta Norte", Status: models.RouteActive},
		"route-2": {ID: "route-2", Code: "RS", Name: "Ruta Sur", Status: models.RouteActive},
	}}
	exceptionals := &exceptionalFinderMock{byUnit: map[string][]models.ExceptionalAssignment{
		"unit-1": {{
			ID:         "ea-1",
			UnitID:     "unit-1",
			RouteID:    "route-2",
			TravelDate: time.Date(travelDate.Year(), travelDate.Month(), travelDate.Day(), 0, 0, 0, 0, time.UTC),
			Active:     true,
		}},
	}}
	repo := &exceptionalRepoMock{byID: map[string]*models.ExceptionalAssignment{}}

	availability := service.NewAvailabilityService(units, routes, &itineraryFinderMock{itineraries: map[string]*models.Itinerary{}}, &permanentFinderMock{}, exceptionals, 92, nil)
	svc := service.NewExceptionalAssignmentService(units, routes, repo, availability, nil, nil)
	h := NewExceptionalAssignmentHandler(svc, service.NewMetricsService())

	payload := service.AssignExceptionalRouteRequest{
		UnitID:     "unit-1",
		RouteID:    "route-1",
		TravelDate: travelDate.Format("2006-01-02"),
		ReasonCode: "EMERGENCY_COVERAGE",
	}
	w := performJSONRequest(h.Assign, http.MethodPost, "/exceptional-assignments", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, repo.created)
}

func TestExceptionalAssignmentHandlerAssignRejectsBadPayload(t *testing.T) {
	repo := &exceptionalRepoMock{byID: map[string]*models.ExceptionalAssignment{}}
	units := &unitFinderMock{units: map[string]*models.Unit{}}
	routes := &routeFinderMock{routes: map[string]*models.Route{}}
	availability := service.NewAvailabilityService(units, routes, &itineraryFinderMock{itineraries: map[string]*models.Itinerary{}}, &permanentFinderMock{}, &exceptionalFinderMock{}, 92, nil)
	svc := service.NewExceptionalAssignmentService(units, routes, repo, availability, nil, nil)
	h := NewExceptionalAssignmentHandler(svc, service.NewMetricsService())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/exceptional-assignments", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h.Assign(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
