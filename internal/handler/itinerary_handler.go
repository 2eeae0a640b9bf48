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

// ItineraryHandler exposes itinerary catalog endpoints.
type ItineraryHandler struct {
	itineraries *service.ItineraryService
}

// NewItineraryHandler constructs ItineraryHandler.
func NewItineraryHandler(itineraries *service.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraries: itineraries}
}

// List godoc
// @Summary List itineraries
// @Tags Itineraries
// @Produce json
// @Param status query string false "Filter by status (ACTIVO, INACTIVO)"
// @Param search query string false "Search by code or name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /itineraries [get]
func (h *ItineraryHandler) List(c *gin.Context) {
	var filter models.ItineraryFilter
	filter.Status = c.Query("status")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	itineraries, pagination, err := h.itineraries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itineraries, pagination)
}

// Get godoc
// @Summary Get an itinerary by id
// @Tags Itineraries
// @Produce json
// @Param id path string true "Itinerary ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /itineraries/{id} [get]
func (h *ItineraryHandler) Get(c *gin.Context) {
	itinerary, err := h.itineraries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itinerary, nil)
}

// Create godoc
// @Summary Create an itinerary
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param payload body service.CreateItineraryRequest true "Itinerary payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /itineraries [post]
func (h *ItineraryHandler) Create(c *gin.Context) {
	var req service.CreateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	itinerary, err := h.itineraries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, itinerary)
}

// Update godoc
// @Summary Update an itinerary
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param id path string true "Itinerary ID"
// @Param payload body service.UpdateItineraryRequest true "Itinerary payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /itineraries/{id} [put]
func (h *ItineraryHandler) Update(c *gin.Context) {
	var req service.UpdateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	itinerary, err := h.itineraries.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itinerary, nil)
}
