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

// RouteHandler exposes route catalog endpoints.
type RouteHandler struct {
	routes *service.RouteService
}

// NewRouteHandler constructs RouteHandler.
func NewRouteHandler(routes *service.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// List godoc
// @Summary List routes
// @Tags Routes
// @Produce json
// @Param status query string false "Filter by status (ACTIVE, INACTIVE, SUSPENDED)"
// @Param search query string false "Search by code, name, origin or destination"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /routes [get]
func (h *RouteHandler) List(c *gin.Context) {
	var filter models.RouteFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := c.Query("status"); status != "" {
		v := models.RouteStatus(status)
		filter.Status = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	routes, pagination, err := h.routes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, pagination)
}

// Get godoc
// @Summary Get a route by id
// @Tags Routes
// @Produce json
// @Param id path string true "Route ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /routes/{id} [get]
func (h *RouteHandler) Get(c *gin.Context) {
	route, err := h.routes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// Create godoc
// @Summary Create a route
// @Tags Routes
// @Accept json
// @Produce json
// @Param payload body service.CreateRouteRequest true "Route payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /routes [post]
func (h *RouteHandler) Create(c *gin.Context) {
	var req service.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	route, err := h.routes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, route)
}

// Update godoc
// @Summary Update a route
// @Tags Routes
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param payload body service.UpdateRouteRequest true "Route payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /routes/{id} [put]
func (h *RouteHandler) Update(c *gin.Context) {
	var req service.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	route, err := h.routes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}
