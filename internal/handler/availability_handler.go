package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
	"github.com/noah-isme/fleet-fuel-api/pkg/response"
)

// AvailabilityHandler exposes the temporal resolution endpoints.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
	metrics      *service.MetricsService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService, metrics *service.MetricsService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, metrics: metrics}
}

// Validate godoc
// @Summary Check whether a unit can take an assignment
// @Tags Availability
// @Produce json
// @Param id path string true "Unit ID"
// @Param type query string true "Assignment type (EXCEPTIONAL or PERMANENT)"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param excludeId query string false "Assignment to skip (when re-validating an update)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/availability [get]
func (h *AvailabilityHandler) Validate(c *gin.Context) {
	kind := c.Query("type")
	if kind == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type is required"))
		return
	}

	start, err := time.ParseInLocation("2006-01-02", c.Query("from"), time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from date must be YYYY-MM-DD"))
		return
	}
	var end time.Time
	if to := c.Query("to"); to != "" {
		end, err = time.ParseInLocation("2006-01-02", to, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to date must be YYYY-MM-DD"))
			return
		}
	}

	result, err := h.availability.Validate(c.Request.Context(), service.AvailabilityRequest{
		UnitID:    c.Param("id"),
		Kind:      models.AssignmentKind(kind),
		StartDate: start,
		EndDate:   end,
		ExcludeID: c.Query("excludeId"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ResolveDay godoc
// @Summary Resolve what governs a unit on a date
// @Tags Availability
// @Produce json
// @Param id path string true "Unit ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/availability/day [get]
func (h *AvailabilityHandler) ResolveDay(c *gin.Context) {
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	resolution, err := h.availability.ResolveDay(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordDayResolution(resolution.Kind)
	response.JSON(c, http.StatusOK, resolution, nil)
}

// ScanRange godoc
// @Summary Resolve every day of a date range for a unit
// @Tags Availability
// @Produce json
// @Param id path string true "Unit ID"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/availability/range [get]
func (h *AvailabilityHandler) ScanRange(c *gin.Context) {
	start, err := time.ParseInLocation("2006-01-02", c.Query("start"), time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start date must be YYYY-MM-DD"))
		return
	}
	end, err := time.ParseInLocation("2006-01-02", c.Query("end"), time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end date must be YYYY-MM-DD"))
		return
	}

	scan, err := h.availability.ScanRange(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scan, nil)
}
