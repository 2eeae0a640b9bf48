package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/service"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
	"github.com/noah-isme/fleet-fuel-api/pkg/response"
)

// transitionRequest carries the optional reason for a lifecycle transition.
type transitionRequest struct {
	Reason string `json:"reason"`
}

// PermanentAssignmentHandler exposes recurring itinerary binding endpoints.
type PermanentAssignmentHandler struct {
	assignments *service.PermanentAssignmentService
	metrics     *service.MetricsService
}

// NewPermanentAssignmentHandler constructs PermanentAssignmentHandler.
func NewPermanentAssignmentHandler(assignments *service.PermanentAssignmentService, metrics *service.MetricsService) *PermanentAssignmentHandler {
	return &PermanentAssignmentHandler{assignments: assignments, metrics: metrics}
}

// Create godoc
// @Summary Bind a unit to an itinerary on a recurring schedule
// @Tags Permanent Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreatePermanentAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments [post]
func (h *PermanentAssignmentHandler) Create(c *gin.Context) {
	var req service.CreatePermanentAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignment, warnings, err := h.assignments.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			h.metrics.RecordConflict(models.KindPermanent)
		}
		response.Error(c, err)
		return
	}

	h.metrics.RecordAssignment(models.KindPermanent)
	meta := map[string]interface{}{}
	if len(warnings) > 0 {
		meta["warnings"] = warnings
	}
	response.JSON(c, http.StatusCreated, assignment, nil, meta)
}

// Update godoc
// @Summary Update an ACTIVE assignment's itinerary or schedule
// @Tags Permanent Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.UpdatePermanentAssignmentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments/{id} [put]
func (h *PermanentAssignmentHandler) Update(c *gin.Context) {
	var req service.UpdatePermanentAssignmentRequest
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

// Unassign godoc
// @Summary Release an ACTIVE assignment
// @Tags Permanent Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body transitionRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments/{id}/unassign [post]
func (h *PermanentAssignmentHandler) Unassign(c *gin.Context) {
	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	assignment, err := h.assignments.Unassign(c.Request.Context(), c.Param("id"), req.Reason, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Reactivate godoc
// @Summary Restore an UNASSIGNED assignment to ACTIVE
// @Tags Permanent Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments/{id}/reactivate [post]
func (h *PermanentAssignmentHandler) Reactivate(c *gin.Context) {
	assignment, err := h.assignments.Reactivate(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			h.metrics.RecordConflict(models.KindPermanent)
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// MarkObsolete godoc
// @Summary Retire an UNASSIGNED assignment permanently
// @Tags Permanent Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body transitionRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments/{id}/obsolete [post]
func (h *PermanentAssignmentHandler) MarkObsolete(c *gin.Context) {
	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	assignment, err := h.assignments.MarkObsolete(c.Request.Context(), c.Param("id"), req.Reason, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// History godoc
// @Summary List an assignment's audit trail
// @Tags Permanent Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permanent-assignments/{id}/history [get]
func (h *PermanentAssignmentHandler) History(c *gin.Context) {
	entries, err := h.assignments.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ActiveForUnit godoc
// @Summary Get a unit's current permanent assignment
// @Tags Permanent Assignments
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/permanent-assignment [get]
func (h *PermanentAssignmentHandler) ActiveForUnit(c *gin.Context) {
	detail, err := h.assignments.ActiveForUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
