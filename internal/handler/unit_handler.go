package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
	"github.com/noah-isme/fleet-fuel-api/pkg/response"
)

// UnitHandler exposes fleet vehicle endpoints.
type UnitHandler struct {
	units *service.UnitService
}

// NewUnitHandler constructs UnitHandler.
func NewUnitHandler(units *service.UnitService) *UnitHandler {
	return &UnitHandler{units: units}
}

// List godoc
// @Summary List fleet units
// @Tags Units
// @Produce json
// @Param role query string false "Filter by role (SUPERVISION or OPERATIONAL)"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search by code, plate or description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units [get]
func (h *UnitHandler) List(c *gin.Context) {
	var filter models.UnitFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if role := c.Query("role"); role != "" {
		v := models.OperationalRole(role)
		filter.Role = &v
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
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	units, pagination, err := h.units.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, units, pagination)
}

// Get godoc
// @Summary Get a unit by id
// @Tags Units
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id} [get]
func (h *UnitHandler) Get(c *gin.Context) {
	unit, err := h.units.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, nil)
}

// Create godoc
// @Summary Register a fleet unit
// @Tags Units
// @Accept json
// @Produce json
// @Param payload body service.CreateUnitRequest true "Unit payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /units [post]
func (h *UnitHandler) Create(c *gin.Context) {
	var req service.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	unit, err := h.units.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, unit)
}

// Update godoc
// @Summary Update a fleet unit
// @Tags Units
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body service.UpdateUnitRequest true "Unit payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id} [put]
func (h *UnitHandler) Update(c *gin.Context) {
	var req service.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	unit, err := h.units.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, nil)
}

// Deactivate godoc
// @Summary Take a unit out of service
// @Tags Units
// @Param id path string true "Unit ID"
// @Success 204
// @Security BearerAuth
// @Router /units/{id} [delete]
func (h *UnitHandler) Deactivate(c *gin.Context) {
	if err := h.units.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
