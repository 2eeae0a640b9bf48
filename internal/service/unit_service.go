package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type unitRepository interface {
	List(ctx context.Context, filter models.UnitFilter) ([]models.Unit, int, error)
	FindByID(ctx context.Context, id string) (*models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	Deactivate(ctx context.Context, id string) error
}

// catalogCache fronts the listing endpoints for slow-changing catalog data.
// Availability resolutions never go through it.
type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string)
}

const unitCachePrefix = "catalog:units:"

type cachedUnitList struct {
	Units []models.Unit `json:"units"`
	Total int           `json:"total"`
}

// CreateUnitRequest holds payload for registering vehicles.
type CreateUnitRequest struct {
	Code          string  `json:"code" validate:"required"`
	Plate         string  `json:"plate" validate:"required"`
	Description   string  `json:"description"`
	OperatingMode *string `json:"operating_mode"`
	Role          string  `json:"role" validate:"omitempty,oneof=SUPERVISION OPERATIONAL"`
}

// UpdateUnitRequest holds payload for updating vehicles.
type UpdateUnitRequest struct {
	Code          string  `json:"code" validate:"required"`
	Plate         string  `json:"plate" validate:"required"`
	Description   string  `json:"description"`
	OperatingMode *string `json:"operating_mode"`
	Role          string  `json:"role" validate:"omitempty,oneof=SUPERVISION OPERATIONAL"`
	Active        bool    `json:"active"`
}

// UnitService handles fleet vehicle use-cases.
type UnitService struct {
	repo      unitRepository
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnitService constructs the unit service.
func NewUnitService(repo unitRepository, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *UnitService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &UnitService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns units and pagination metadata, served from cache when possible.
func (s *UnitService) List(ctx context.Context, filter models.UnitFilter) ([]models.Unit, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	key := unitCacheKey(filter, page, size)
	if s.cache != nil {
		var cached cachedUnitList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Units, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unit cache read failed", zap.Error(err))
		}
	}

	units, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list units")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedUnitList{Units: units, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("unit cache write failed", zap.Error(err))
		}
	}
	return units, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one unit.
func (s *UnitService) Get(ctx context.Context, id string) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	return unit, nil
}

// Create registers a new vehicle. When no explicit role is supplied, one is
// derived from the operating-mode label.
func (s *UnitService) Create(ctx context.Context, req CreateUnitRequest) (*models.Unit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unit payload")
	}

	role := models.OperationalRole(req.Role)
	if role == "" {
		role = ClassifyOperatingMode(req.OperatingMode)
	}

	unit := &models.Unit{
		Code:          req.Code,
		Plate:         req.Plate,
		Description:   req.Description,
		OperatingMode: req.OperatingMode,
		Role:          role,
		Active:        true,
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unit")
	}
	s.invalidate(ctx)
	return unit, nil
}

// Update modifies an existing vehicle.
func (s *UnitService) Update(ctx context.Context, id string, req UpdateUnitRequest) (*models.Unit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unit payload")
	}
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}

	unit.Code = req.Code
	unit.Plate = req.Plate
	unit.Description = req.Description
	unit.OperatingMode = req.OperatingMode
	if req.Role != "" {
		unit.Role = models.OperationalRole(req.Role)
	} else {
		unit.Role = ClassifyOperatingMode(req.OperatingMode)
	}
	unit.Active = req.Active

	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update unit")
	}
	s.invalidate(ctx)
	return unit, nil
}

// Deactivate flags the vehicle out of service. Existing assignments are left
// untouched; the availability validator rejects new ones.
func (s *UnitService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate unit")
	}
	s.invalidate(ctx)
	return nil
}

func (s *UnitService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePrefix(ctx, unitCachePrefix)
	}
}

func unitCacheKey(filter models.UnitFilter, page, size int) string {
	role := ""
	if filter.Role != nil {
		role = string(*filter.Role)
	}
	active := ""
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%d:%d", unitCachePrefix, role, active, filter.Search, filter.SortBy, filter.SortOrder, page, size)
}
