package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
	"github.com/noah-isme/fleet-fuel-api/pkg/response"
)

// ExceptionalAssignmentHandler exposes one-time route override endpoints.
type ExceptionalAssignmentHandler struct {
	assignments *service.ExceptionalAssignmentService
	metrics     *service.MetricsService
}

// NewExceptionalAssignmentHandler constructs ExceptionalAssignmentHandler.
func NewExceptionalAssignmentHandler(assignments *service.ExceptionalAssignmentService, metrics *service.MetricsService) *ExceptionalAssignmentHandler {
	return &ExceptionalAssignmentHandler{assignments: assignments, metrics: metrics}
}

// Assign godoc
// @Summary Assign an exceptional route to a unit for one date
// @Tags Exceptional Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignExceptionalRouteRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /exceptional-assignments [post]
func (h *ExceptionalAssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignExceptionalRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignment, warnings, err := h.assignments.Assign(c.Request.Context(), req, actorID(c))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			h.metrics.RecordConflict(models.KindExceptional)
		}
		response.Error(c, err)
		return
	}

	h.metrics.RecordAssignment(models.KindExceptional)
	meta := map[string]interface{}{}
	if len(warnings) > 0 {
		meta["warnings"] = warnings
	}
	response.JSON(c, http.StatusCreated, assignment, nil, meta)
}

// List godoc
// @Summary List exceptional assignments
// @Tags Exceptional Assignments
// @Produce json
// @Param unitId query string false "Filter by unit"
// @Param date query string false "Filter by travel date (YYYY-MM-DD)"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exceptional-assignments [get]
func (h *ExceptionalAssignmentHandler) List(c *gin.Context) {
	var filter models.ExceptionalAssignmentFilter
	filter.UnitID = c.Query("unitId")
	if date := c.Query("date"); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &parsed
	}
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	assignments, pagination, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// Update godoc
// @Summary Update an exceptional assignment's descriptive fields
// @Tags Exceptional Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.UpdateExceptionalRouteRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exceptional-assignments/{id} [put]
func (h *ExceptionalAssignmentHandler) Update(c *gin.Context) {
	var req service.UpdateExceptionalRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Cancel godoc
// @Summary Cancel an exceptional assignment
// @Tags Exceptional Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exceptional-assignments/{id}/cancel [post]
func (h *ExceptionalAssignmentHandler) Cancel(c *gin.Context) {
	message, err := h.assignments.Cancel(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": message}, nil)
}
