package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
)

type itineraryRepository interface {
	List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error)
	FindByID(ctx context.Context, id string) (*models.Itinerary, error)
	Create(ctx context.Context, itinerary *models.Itinerary) error
	Update(ctx context.Context, itinerary *models.Itinerary) error
}

const itineraryCachePrefix = "catalog:itineraries:"

type cachedItineraryList struct {
	Itineraries []models.Itinerary `json:"itineraries"`
	Total       int                `json:"total"`
}

// CreateItineraryRequest holds payload for creating itineraries.
type CreateItineraryRequest struct {
	Code          string   `json:"code" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	OperatingDays []string `json:"operating_days" validate:"required,min=1"`
}

// UpdateItineraryRequest holds payload for updating itineraries.
type UpdateItineraryRequest struct {
	Code          string   `json:"code" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Status        string   `json:"status" validate:"required,oneof=ACTIVO INACTIVO"`
	OperatingDays []string `json:"operating_days" validate:"required,min=1"`
}

// ItineraryService handles recurring route template use-cases.
type ItineraryService struct {
	repo      itineraryRepository
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItineraryService constructs the itinerary service.
func NewItineraryService(repo itineraryRepository, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ItineraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ItineraryService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns itineraries and pagination metadata, served from cache when
// possible.
func (s *ItineraryService) List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	key := fmt.Sprintf("%s%s:%s:%d:%d", itineraryCachePrefix, filter.Status, filter.Search, page, size)
	if s.cache != nil {
		var cached cachedItineraryList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Itineraries, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("itinerary cache read failed", zap.Error(err))
		}
	}

	itineraries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list itineraries")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedItineraryList{Itineraries: itineraries, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("itinerary cache write failed", zap.Error(err))
		}
	}
	return itineraries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one itinerary.
func (s *ItineraryService) Get(ctx context.Context, id string) (*models.Itinerary, error) {
	itinerary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load itinerary")
	}
	return itinerary, nil
}

// Create registers a new itinerary in ACTIVO state.
func (s *ItineraryService) Create(ctx context.Context, req CreateItineraryRequest) (*models.Itinerary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid itinerary payload")
	}
	days, err := normalizeWeekdays(req.OperatingDays)
	if err != nil {
		return nil, err
	}
	itinerary := &models.Itinerary{
		Code:          req.Code,
		Name:          req.Name,
		Status:        models.ItineraryActive,
		OperatingDays: pq.StringArray(days),
	}
	if err := s.repo.Create(ctx, itinerary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create itinerary")
	}
	s.invalidate(ctx)
	return itinerary, nil
}

// Update modifies an existing itinerary.
func (s *ItineraryService) Update(ctx context.Context, id string, req UpdateItineraryRequest) (*models.Itinerary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid itinerary payload")
	}
	itinerary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load itinerary")
	}
	days, err := normalizeWeekdays(req.OperatingDays)
	if err != nil {
		return nil, err
	}

	itinerary.Code = req.Code
	itinerary.Name = req.Name
	itinerary.Status = req.Status
	itinerary.OperatingDays = pq.StringArray(days)

	if err := s.repo.Update(ctx, itinerary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update itinerary")
	}
	s.invalidate(ctx)
	return itinerary, nil
}

func (s *ItineraryService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePrefix(ctx, itineraryCachePrefix)
	}
}

// normalizeWeekdays validates day names against the legacy vocabulary and
// drops duplicates, preserving order.
func normalizeWeekdays(days []string) ([]string, error) {
	seen := make(map[string]bool, len(days))
	out := make([]string, 0, len(days))
	for _, day := range days {
		if !validWeekday(day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown operating day %q", day))
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	return out, nil
}
