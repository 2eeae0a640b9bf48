package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type unitReader interface {
	FindByID(ctx context.Context, id string) (*models.Unit, error)
}

type routeReader interface {
	FindByID(ctx context.Context, id string) (*models.Route, error)
}

type itineraryReader interface {
	FindByID(ctx context.Context, id string) (*models.Itinerary, error)
}

type permanentAssignmentReader interface {
	FindActiveByUnit(ctx context.Context, unitID, excludeID string) (*models.PermanentAssignment, error)
}

type exceptionalAssignmentReader interface {
	FindActiveInRange(ctx context.Context, unitID string, start, end time.Time, excludeID string) ([]models.ExceptionalAssignment, error)
}

// AvailabilityRequest asks whether a unit can take an assignment of the given
// kind over a date or date range. ExcludeID skips the assignment being updated.
type AvailabilityRequest struct {
	UnitID    string
	Kind      models.AssignmentKind
	StartDate time.Time
	EndDate   time.Time
	ExcludeID string
}

// AvailabilityService evaluates the temporal priority rules between permanent
// itineraries and exceptional routes. It holds no state between calls; every
// answer is derived fresh from the assignment tables.
type AvailabilityService struct {
	units        unitReader
	routes       routeReader
	itineraries  itineraryReader
	permanents   permanentAssignmentReader
	exceptionals exceptionalAssignmentReader
	maxScanDays  int
	logger       *zap.Logger
}

// NewAvailabilityService creates a service instance.
func NewAvailabilityService(
	units unitReader,
	routes routeReader,
	itineraries itineraryReader,
	permanents permanentAssignmentReader,
	exceptionals exceptionalAssignmentReader,
	maxScanDays int,
	logger *zap.Logger,
) *AvailabilityService {
	if maxScanDays <= 0 {
		maxScanDays = 92
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		units:        units,
		routes:       routes,
		itineraries:  itineraries,
		permanents:   permanents,
		exceptionals: exceptionals,
		maxScanDays:  maxScanDays,
		logger:       logger,
	}
}

// Validate answers "can unit U take assignment type T on date(s) D". Conflicts
// force Permitted=false; warnings ride alongside a permitted result.
func (s *AvailabilityService) Validate(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityResult, error) {
	result := &models.AvailabilityResult{Permitted: true, Warnings: []string{}, Conflicts: []string{}}

	unit, err := s.units.FindByID(ctx, req.UnitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Permitted = false
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("unit %s does not exist", req.UnitID))
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	if !unit.Active {
		result.Permitted = false
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("unit %s is not active", unit.Code))
		return result, nil
	}

	start := dateOnly(req.StartDate)
	end := start
	switch {
	case !req.EndDate.IsZero():
		end = dateOnly(req.EndDate)
	case req.Kind == models.KindPermanent:
		// A recurring binding has no end date: every exceptional route already
		// scheduled from the start date onward takes precedence on its day, so
		// the scan stays open-ended (zero end means no upper bound).
		end = time.Time{}
	}

	excludePermanent := ""
	excludeExceptional := ""
	switch req.Kind {
	case models.KindPermanent:
		excludePermanent = req.ExcludeID
	case models.KindExceptional:
		excludeExceptional = req.ExcludeID
	}

	permanent, err := s.permanents.FindActiveByUnit(ctx, unit.ID, excludePermanent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permanent assignment")
	}
	exceptionals, err := s.exceptionals.FindActiveInRange(ctx, unit.ID, start, end, excludeExceptional)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptional assignments")
	}

	switch req.Kind {
	case models.KindPermanent:
		s.validatePermanentRequest(ctx, result, permanent, exceptionals)
	case models.KindExceptional:
		s.validateExceptionalRequest(ctx, result, unit, permanent, exceptionals, start)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assignment type %q", req.Kind))
	}

	return result, nil
}

// validatePermanentRequest applies the single-active-itinerary rule. Future
// exceptional routes never block a new itinerary; they only warn, because they
// take precedence over the itinerary on their specific dates.
func (s *AvailabilityService) validatePermanentRequest(ctx context.Context, result *models.AvailabilityResult, permanent *models.PermanentAssignment, exceptionals []models.ExceptionalAssignment) {
	if permanent != nil {
		result.Permitted = false
		result.Conflicts = append(result.Conflicts,
			fmt.Sprintf("unit already has an active permanent assignment to itinerary %s", s.itineraryName(ctx, permanent.ItineraryID)))
	}

	const maxNamed = 3
	for i, ea := range exceptionals {
		if i == maxNamed {
			result.Warnings = append(result.Warnings, fmt.Sprintf("... and %d more exceptional route(s) in the range", len(exceptionals)-maxNamed))
			break
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("exceptional route %s on %s will take precedence over the itinerary that day",
				s.routeName(ctx, ea.RouteID), ea.TravelDate.Format("2006-01-02")))
	}
}

// validateExceptionalRequest applies the per-date exclusivity rule. The
// operational path fails on the first blocking conflict found; the supervision
// path never rejects on count.
func (s *AvailabilityService) validateExceptionalRequest(ctx context.Context, result *models.AvailabilityResult, unit *models.Unit, permanent *models.PermanentAssignment, exceptionals []models.ExceptionalAssignment, date time.Time) {
	role := roleForUnit(unit)
	weekday := models.WeekdayName(date)

	if role == models.RoleSupervision {
		if len(exceptionals) > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("unit already has %d route(s) scheduled for this date", len(exceptionals)))
		}
		if permanent != nil && permanent.OperatesOn(weekday) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("permanent itinerary %s also operates on %s and will run in addition to the exceptional route",
					s.itineraryName(ctx, permanent.ItineraryID), weekday))
		}
		return
	}

	if len(exceptionals) > 0 {
		existing := exceptionals[0]
		result.Permitted = false
		result.Conflicts = append(result.Conflicts,
			fmt.Sprintf("unit already has exceptional route %s assigned for %s",
				s.routeName(ctx, existing.RouteID), existing.TravelDate.Format("2006-01-02")))
		return
	}

	if permanent != nil {
		name := s.itineraryName(ctx, permanent.ItineraryID)
		if permanent.OperatesOn(weekday) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("exceptional route overrides itinerary %s for %s only; the itinerary resumes the next operating day", name, weekday))
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("itinerary %s does not operate on %s; no conflict", name, weekday))
		}
	}
}

// ResolveDay answers "what governs unit U on date D". Priority order:
// exceptional, then permanent when its day list includes the weekday, then
// free. This is a read-only status query; unknown units resolve to FREE with
// an explanation rather than an error.
func (s *AvailabilityService) ResolveDay(ctx context.Context, unitID string, date time.Time) (*models.DayResolution, error) {
	day := dateOnly(date)
	weekday := models.WeekdayName(day)

	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.DayResolution{Kind: models.KindFree, Details: fmt.Sprintf("unit %s does not exist", unitID)}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}

	exceptionals, err := s.exceptionals.FindActiveInRange(ctx, unit.ID, day, day, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptional assignments")
	}
	if len(exceptionals) > 0 {
		assignment := exceptionals[0]
		return &models.DayResolution{
			Kind:                  models.KindExceptional,
			ExceptionalAssignment: &assignment,
			Details:               fmt.Sprintf("exceptional route %s governs this date", s.routeName(ctx, assignment.RouteID)),
		}, nil
	}

	permanent, err := s.permanents.FindActiveByUnit(ctx, unit.ID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permanent assignment")
	}
	if permanent == nil {
		return &models.DayResolution{Kind: models.KindFree, Details: "no assignment for this date"}, nil
	}
	if permanent.OperatesOn(weekday) {
		return &models.DayResolution{
			Kind:                models.KindPermanent,
			PermanentAssignment: permanent,
			Details:             fmt.Sprintf("permanent itinerary %s operates on %s", s.itineraryName(ctx, permanent.ItineraryID), weekday),
		}, nil
	}
	return &models.DayResolution{
		Kind:    models.KindFree,
		Details: fmt.Sprintf("itinerary %s does not operate on %s", s.itineraryName(ctx, permanent.ItineraryID), weekday),
	}, nil
}

// ScanRange resolves every day in [start, end] and buckets the results.
// Resolution is sequential per day; ranges are bounded to operational windows.
func (s *AvailabilityService) ScanRange(ctx context.Context, unitID string, start, end time.Time) (*models.RangeAvailability, error) {
	from := dateOnly(start)
	to := dateOnly(end)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	totalDays := int(to.Sub(from).Hours()/24) + 1
	if totalDays > s.maxScanDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds the %d day scan limit", s.maxScanDays))
	}

	scan := &models.RangeAvailability{FreeDays: []time.Time{}, BusyDays: []models.BusyDay{}}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		resolution, err := s.ResolveDay(ctx, unitID, day)
		if err != nil {
			return nil, err
		}
		if resolution.Kind == models.KindFree {
			scan.FreeDays = append(scan.FreeDays, day)
			continue
		}
		scan.BusyDays = append(scan.BusyDays, models.BusyDay{Date: day, Kind: resolution.Kind, Details: resolution.Details})
	}
	scan.Summary = fmt.Sprintf("%d/%d days available", len(scan.FreeDays), totalDays)
	return scan, nil
}

func (s *AvailabilityService) routeName(ctx context.Context, routeID string) string {
	route, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		s.logger.Warn("failed to resolve route name", zap.String("route_id", routeID), zap.Error(err))
		return routeID
	}
	return fmt.Sprintf("%s (%s)", route.Name, route.Code)
}

func (s *AvailabilityService) itineraryName(ctx context.Context, itineraryID string) string {
	itinerary, err := s.itineraries.FindByID(ctx, itineraryID)
	if err != nil {
		s.logger.Warn("failed to resolve itinerary name", zap.String("itinerary_id", itineraryID), zap.Error(err))
		return itineraryID
	}
	return itinerary.Name
}

// dateOnly truncates a timestamp to midnight UTC; all engine comparisons are
// calendar-date comparisons.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
