package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type exceptionalAssignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.ExceptionalAssignment, error)
	List(ctx context.Context, filter models.ExceptionalAssignmentFilter) ([]models.ExceptionalAssignmentDetail, int, error)
	Create(ctx context.Context, assignment *models.ExceptionalAssignment, enforceSingle bool) error
	Update(ctx context.Context, assignment *models.ExceptionalAssignment) error
}

type availabilityValidator interface {
	Validate(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityResult, error)
}

// AssignExceptionalRouteRequest describes a one-time route override payload.
type AssignExceptionalRouteRequest struct {
	UnitID                string  `json:"unit_id" validate:"required"`
	RouteID               string  `json:"route_id" validate:"required"`
	TravelDate            string  `json:"travel_date" validate:"required,datetime=2006-01-02"`
	ReasonCode            string  `json:"reason_code" validate:"required"`
	ReasonDetail          string  `json:"reason_detail"`
	Priority              string  `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	RequiresAuthorization bool    `json:"requires_authorization"`
	AuthorizedBy          *string `json:"authorized_by"`
	Notes                 string  `json:"notes"`
}

// UpdateExceptionalRouteRequest patches descriptive fields only. Unit, route
// and travel date are immutable after creation.
type UpdateExceptionalRouteRequest struct {
	ReasonCode            *string `json:"reason_code"`
	ReasonDetail          *string `json:"reason_detail"`
	Priority              *string `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	RequiresAuthorization *bool   `json:"requires_authorization"`
	AuthorizedBy          *string `json:"authorized_by"`
	Notes                 *string `json:"notes"`
}

// ExceptionalAssignmentService creates, updates and cancels one-time route
// overrides, consulting the availability validator before every write.
type ExceptionalAssignmentService struct {
	units        unitReader
	routes       routeReader
	assignments  exceptionalAssignmentRepo
	availability availabilityValidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewExceptionalAssignmentService creates a service instance.
func NewExceptionalAssignmentService(
	units unitReader,
	routes routeReader,
	assignments exceptionalAssignmentRepo,
	availability availabilityValidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExceptionalAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionalAssignmentService{
		units:        units,
		routes:       routes,
		assignments:  assignments,
		availability: availability,
		validator:    validate,
		logger:       logger,
	}
}

// Assign creates a one-time route override for a unit and date.
func (s *ExceptionalAssignmentService) Assign(ctx context.Context, req AssignExceptionalRouteRequest, actorID string) (*models.ExceptionalAssignment, []string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	unit, err := s.units.FindByID(ctx, req.UnitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	if !unit.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unit is not active")
	}

	route, err := s.routes.FindByID(ctx, req.RouteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "route not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route")
	}
	if route.Status != models.RouteActive {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "route is not in operational state")
	}

	travelDate, err := time.ParseInLocation("2006-01-02", req.TravelDate, time.UTC)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "travel date must be YYYY-MM-DD")
	}
	if travelDate.Before(dateOnly(time.Now().UTC())) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "travel date cannot be in the past")
	}

	availability, err := s.availability.Validate(ctx, AvailabilityRequest{
		UnitID:    unit.ID,
		Kind:      models.KindExceptional,
		StartDate: travelDate,
	})
	if err != nil {
		return nil, nil, err
	}
	if !availability.Permitted {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, strings.Join(availability.Conflicts, "; "))
	}

	if req.RequiresAuthorization && (req.AuthorizedBy == nil || *req.AuthorizedBy == "") {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "an authorizing actor is required for this assignment")
	}

	priority := models.ExceptionalPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityNormal
	}

	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("Exceptional route %s assigned to unit %s for %s.", route.Code, unit.Code, travelDate.Format("2006-01-02"))
		if len(availability.Warnings) > 0 {
			notes += " " + strings.Join(availability.Warnings, " ")
		}
	}

	assignment := &models.ExceptionalAssignment{
		UnitID:                unit.ID,
		RouteID:               route.ID,
		TravelDate:            travelDate,
		Active:                true,
		ReasonCode:            req.ReasonCode,
		ReasonDetail:          req.ReasonDetail,
		Priority:              priority,
		RequiresAuthorization: req.RequiresAuthorization,
		AuthorizedBy:          req.AuthorizedBy,
		AssignedBy:            actorID,
		Notes:                 notes,
	}
	if req.AuthorizedBy != nil && *req.AuthorizedBy != "" {
		now := time.Now().UTC()
		assignment.AuthorizedAt = &now
	}

	enforceSingle := roleForUnit(unit) == models.RoleOperational
	if err := s.assignments.Create(ctx, assignment, enforceSingle); err != nil {
		if errors.Is(err, repository.ErrDateAlreadyAssigned) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "unit already has an active exceptional assignment for this date")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	return assignment, availability.Warnings, nil
}

// Cancel deactivates an assignment. Cancelling an already-inactive or
// past-dated assignment is rejected, not silently accepted.
func (s *ExceptionalAssignmentService) Cancel(ctx context.Context, id, actorID string) (string, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if !assignment.Active {
		return "", appErrors.Clone(appErrors.ErrValidation, "assignment is already cancelled")
	}
	if dateOnly(assignment.TravelDate).Before(dateOnly(time.Now().UTC())) {
		return "", appErrors.Clone(appErrors.ErrValidation, "cannot cancel an assignment whose travel date has passed")
	}

	now := time.Now().UTC()
	assignment.Active = false
	assignment.UnassignedAt = &now
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel assignment")
	}

	s.logger.Info("exceptional assignment cancelled",
		zap.String("assignment_id", assignment.ID),
		zap.String("actor_id", actorID),
	)
	return fmt.Sprintf("exceptional assignment for %s cancelled", assignment.TravelDate.Format("2006-01-02")), nil
}

// Update patches descriptive fields, priority and authorization.
func (s *ExceptionalAssignmentService) Update(ctx context.Context, id string, req UpdateExceptionalRouteRequest, actorID string) (*models.ExceptionalAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if !assignment.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancelled assignments cannot be updated")
	}

	if req.ReasonCode != nil {
		assignment.ReasonCode = *req.ReasonCode
	}
	if req.ReasonDetail != nil {
		assignment.ReasonDetail = *req.ReasonDetail
	}
	if req.Priority != nil {
		assignment.Priority = models.ExceptionalPriority(*req.Priority)
	}
	if req.RequiresAuthorization != nil {
		assignment.RequiresAuthorization = *req.RequiresAuthorization
	}
	if req.AuthorizedBy != nil {
		assignment.AuthorizedBy = req.AuthorizedBy
		if *req.AuthorizedBy != "" {
			now := time.Now().UTC()
			assignment.AuthorizedAt = &now
		} else {
			// Clearing the authorizer clears the timestamp with it.
			assignment.AuthorizedAt = nil
		}
	}
	if req.Notes != nil {
		assignment.Notes = *req.Notes
	}

	if assignment.RequiresAuthorization && (assignment.AuthorizedBy == nil || *assignment.AuthorizedBy == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an authorizing actor is required for this assignment")
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// List returns assignments with catalog details.
func (s *ExceptionalAssignmentService) List(ctx context.Context, filter models.ExceptionalAssignmentFilter) ([]models.ExceptionalAssignmentDetail, *models.Pagination, error) {
	assignments, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return assignments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
