package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	"github.com/noah-isme/fleet-fuel-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type permanentAssignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.PermanentAssignment, error)
	FindActiveByUnit(ctx context.Context, unitID, excludeID string) (*models.PermanentAssignment, error)
	FindDetailByUnit(ctx context.Context, unitID string) (*models.PermanentAssignmentDetail, error)
	Create(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error
	Update(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error
	Transition(ctx context.Context, assignment *models.PermanentAssignment, state models.PermanentAssignmentState, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, assignmentID string) ([]models.HistoryEntry, error)
}

type executionCounter interface {
	CountInProgressExecutions(ctx context.Context, unitID, itineraryID string) (int, error)
}

// CreatePermanentAssignmentRequest binds a unit to an itinerary on a schedule.
type CreatePermanentAssignmentRequest struct {
	UnitID        string   `json:"unit_id" validate:"required"`
	ItineraryID   string   `json:"itinerary_id" validate:"required"`
	Frequency     string   `json:"frequency" validate:"required,oneof=DAILY WEEKDAYS WEEKENDS CUSTOM"`
	OperatingDays []string `json:"operating_days"`
	Notes         string   `json:"notes"`
}

// UpdatePermanentAssignmentRequest patches an ACTIVE assignment's schedule.
type UpdatePermanentAssignmentRequest struct {
	ItineraryID   *string  `json:"itinerary_id"`
	Frequency     *string  `json:"frequency" validate:"omitempty,oneof=DAILY WEEKDAYS WEEKENDS CUSTOM"`
	OperatingDays []string `json:"operating_days"`
	Notes         *string  `json:"notes"`
}

// PermanentAssignmentService manages recurring unit-itinerary bindings and
// their ACTIVE / UNASSIGNED / OBSOLETE lifecycle. Every state transition
// appends exactly one history entry; reads never do.
type PermanentAssignmentService struct {
	units        unitReader
	itineraries  itineraryReader
	executions   executionCounter
	assignments  permanentAssignmentRepo
	availability availabilityValidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPermanentAssignmentService creates a service instance.
func NewPermanentAssignmentService(
	units unitReader,
	itineraries itineraryReader,
	executions executionCounter,
	assignments permanentAssignmentRepo,
	availability availabilityValidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *PermanentAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermanentAssignmentService{
		units:        units,
		itineraries:  itineraries,
		executions:   executions,
		assignments:  assignments,
		availability: availability,
		validator:    validate,
		logger:       logger,
	}
}

// Create binds a unit to an itinerary. At most one ACTIVE binding may exist
// per unit; the repository re-checks this under a row lock so concurrent
// creates cannot both succeed.
func (s *PermanentAssignmentService) Create(ctx context.Context, req CreatePermanentAssignmentRequest, actorID string) (*models.PermanentAssignment, []string, error) {
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

	itinerary, err := s.itineraries.FindByID(ctx, req.ItineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load itinerary")
	}
	if itinerary.Status != models.ItineraryActive {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "itinerary is not active")
	}

	frequency := models.Frequency(req.Frequency)
	operatingDays, err := resolveOperatingDays(frequency, req.OperatingDays)
	if err != nil {
		return nil, nil, err
	}

	availability, err := s.availability.Validate(ctx, AvailabilityRequest{
		UnitID:    unit.ID,
		Kind:      models.KindPermanent,
		StartDate: time.Now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}
	if !availability.Permitted {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, strings.Join(availability.Conflicts, "; "))
	}

	assignment := &models.PermanentAssignment{
		UnitID:        unit.ID,
		ItineraryID:   itinerary.ID,
		State:         models.AssignmentActive,
		Frequency:     frequency,
		OperatingDays: pq.StringArray(operatingDays),
		AssignedBy:    actorID,
		Notes:         req.Notes,
	}
	entry := &models.HistoryEntry{
		Action:  models.HistoryAssigned,
		Detail:  fmt.Sprintf("assigned to itinerary %s (%s), operating %s", itinerary.Name, frequency, strings.Join(operatingDays, ", ")),
		ActorID: actorID,
	}

	if err := s.assignments.Create(ctx, assignment, entry); err != nil {
		if errors.Is(err, repository.ErrActiveAssignmentExists) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "unit already has an active permanent assignment")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	return assignment, availability.Warnings, nil
}

// Update modifies an ACTIVE assignment's itinerary, schedule or notes. A
// request that changes nothing writes nothing and appends no history.
func (s *PermanentAssignmentService) Update(ctx context.Context, id string, req UpdatePermanentAssignmentRequest, actorID string) (*models.PermanentAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.State != models.AssignmentActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only ACTIVE assignments can be updated; current state is %s", assignment.State))
	}

	var changes []string

	if req.ItineraryID != nil && *req.ItineraryID != assignment.ItineraryID {
		itinerary, err := s.itineraries.FindByID(ctx, *req.ItineraryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load itinerary")
		}
		if itinerary.Status != models.ItineraryActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "itinerary is not active")
		}
		assignment.ItineraryID = itinerary.ID
		changes = append(changes, fmt.Sprintf("itinerary changed to %s", itinerary.Name))
	}

	frequency := assignment.Frequency
	if req.Frequency != nil {
		frequency = models.Frequency(*req.Frequency)
	}
	if req.Frequency != nil || req.OperatingDays != nil {
		customDays := req.OperatingDays
		if customDays == nil {
			customDays = assignment.OperatingDays
		}
		operatingDays, err := resolveOperatingDays(frequency, customDays)
		if err != nil {
			return nil, err
		}
		if frequency != assignment.Frequency || !sameDays(assignment.OperatingDays, operatingDays) {
			assignment.Frequency = frequency
			assignment.OperatingDays = pq.StringArray(operatingDays)
			changes = append(changes, fmt.Sprintf("schedule changed to %s (%s)", frequency, strings.Join(operatingDays, ", ")))
		}
	}

	if req.Notes != nil && *req.Notes != assignment.Notes {
		assignment.Notes = *req.Notes
		changes = append(changes, "notes updated")
	}

	if len(changes) == 0 {
		return assignment, nil
	}

	entry := &models.HistoryEntry{
		Action:  models.HistoryUpdated,
		Detail:  strings.Join(changes, "; "),
		ActorID: actorID,
	}
	if err := s.assignments.Update(ctx, assignment, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Unassign releases an ACTIVE binding. Units with an itinerary execution still
// in progress cannot be released until the run finishes.
func (s *PermanentAssignmentService) Unassign(ctx context.Context, id, reason, actorID string) (*models.PermanentAssignment, error) {
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.State != models.AssignmentActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only ACTIVE assignments can be unassigned; current state is %s", assignment.State))
	}

	inProgress, err := s.executions.CountInProgressExecutions(ctx, assignment.UnitID, assignment.ItineraryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check itinerary executions")
	}
	if inProgress > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("unit has %d itinerary execution(s) in progress; finish them before unassigning", inProgress))
	}

	detail := "released from itinerary"
	if reason != "" {
		detail = fmt.Sprintf("released from itinerary: %s", reason)
	}
	entry := &models.HistoryEntry{Action: models.HistoryUnassigned, Detail: detail, ActorID: actorID}
	if err := s.assignments.Transition(ctx, assignment, models.AssignmentUnassigned, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign")
	}
	return assignment, nil
}

// Reactivate restores an UNASSIGNED binding to ACTIVE. The one-active-per-unit
// rule is re-checked inside the transition; another assignment may have taken
// the slot since this one was released.
func (s *PermanentAssignmentService) Reactivate(ctx context.Context, id, actorID string) (*models.PermanentAssignment, error) {
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.State != models.AssignmentUnassigned {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only UNASSIGNED assignments can be reactivated; current state is %s", assignment.State))
	}

	itinerary, err := s.itineraries.FindByID(ctx, assignment.ItineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the assignment's itinerary no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load itinerary")
	}
	if itinerary.Status != models.ItineraryActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the assignment's itinerary is no longer active")
	}

	entry := &models.HistoryEntry{Action: models.HistoryReactivated, Detail: fmt.Sprintf("reactivated on itinerary %s", itinerary.Name), ActorID: actorID}
	if err := s.assignments.Transition(ctx, assignment, models.AssignmentActive, entry); err != nil {
		if errors.Is(err, repository.ErrActiveAssignmentExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "unit already has an active permanent assignment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate")
	}
	return assignment, nil
}

// MarkObsolete retires an UNASSIGNED binding for good. OBSOLETE is terminal.
func (s *PermanentAssignmentService) MarkObsolete(ctx context.Context, id, reason, actorID string) (*models.PermanentAssignment, error) {
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.State != models.AssignmentUnassigned {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only UNASSIGNED assignments can be marked obsolete; current state is %s", assignment.State))
	}

	detail := "marked obsolete"
	if reason != "" {
		detail = fmt.Sprintf("marked obsolete: %s", reason)
	}
	entry := &models.HistoryEntry{Action: models.HistoryObsoleted, Detail: detail, ActorID: actorID}
	if err := s.assignments.Transition(ctx, assignment, models.AssignmentObsolete, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark obsolete")
	}
	return assignment, nil
}

// History returns the assignment's audit trail, oldest first.
func (s *PermanentAssignmentService) History(ctx context.Context, id string) ([]models.HistoryEntry, error) {
	if _, err := s.findAssignment(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.assignments.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return entries, nil
}

// ActiveForUnit returns the unit's current ACTIVE binding with catalog names,
// or nil when the unit has none.
func (s *PermanentAssignmentService) ActiveForUnit(ctx context.Context, unitID string) (*models.PermanentAssignmentDetail, error) {
	detail, err := s.assignments.FindDetailByUnit(ctx, unitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return detail, nil
}

func (s *PermanentAssignmentService) findAssignment(ctx context.Context, id string) (*models.PermanentAssignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// resolveOperatingDays expands a frequency into its weekday list, validating
// CUSTOM day names against the legacy vocabulary.
func resolveOperatingDays(freq models.Frequency, custom []string) ([]string, error) {
	if freq != models.FrequencyCustom {
		return models.OperatingDaysFor(freq, nil), nil
	}
	if len(custom) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a CUSTOM frequency requires at least one operating day")
	}
	seen := make(map[string]bool, len(custom))
	days := make([]string, 0, len(custom))
	for _, day := range custom {
		if !validWeekday(day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown operating day %q", day))
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}

func validWeekday(day string) bool {
	for _, name := range models.WeekdayNames {
		if name == day {
			return true
		}
	}
	return false
}

func sameDays(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
