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

type routeRepository interface {
	List(ctx context.Context, filter models.RouteFilter) ([]models.Route, int, error)
	FindByID(ctx context.Context, id string) (*models.Route, error)
	Create(ctx context.Context, route *models.Route) error
	Update(ctx context.Context, route *models.Route) error
}

const routeCachePrefix = "catalog:routes:"

type cachedRouteList struct {
	Routes []models.Route `json:"routes"`
	Total  int            `json:"total"`
}

// CreateRouteRequest holds payload for creating routes.
type CreateRouteRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// UpdateRouteRequest holds payload for updating routes.
type UpdateRouteRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED"`
}

// RouteService handles route catalog use-cases.
type RouteService struct {
	repo      routeRepository
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRouteService constructs the route service.
func NewRouteService(repo routeRepository, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *RouteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &RouteService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns routes and pagination metadata, served from cache when possible.
func (s *RouteService) List(ctx context.Context, filter models.RouteFilter) ([]models.Route, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	key := fmt.Sprintf("%s%s:%s:%d:%d", routeCachePrefix, status, filter.Search, page, size)
	if s.cache != nil {
		var cached cachedRouteList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Routes, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("route cache read failed", zap.Error(err))
		}
	}

	routes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routes")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedRouteList{Routes: routes, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("route cache write failed", zap.Error(err))
		}
	}
	return routes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one route.
func (s *RouteService) Get(ctx context.Context, id string) (*models.Route, error) {
	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "route not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route")
	}
	return route, nil
}

// Create registers a new route in ACTIVE state.
func (s *RouteService) Create(ctx context.Context, req CreateRouteRequest) (*models.Route, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid route payload")
	}
	route := &models.Route{
		Code:        req.Code,
		Name:        req.Name,
		Origin:      req.Origin,
		Destination: req.Destination,
		Status:      models.RouteActive,
	}
	if err := s.repo.Create(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create route")
	}
	s.invalidate(ctx)
	return route, nil
}

// Update modifies an existing route.
func (s *RouteService) Update(ctx context.Context, id string, req UpdateRouteRequest) (*models.Route, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid route payload")
	}
	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "route not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route")
	}

	route.Code = req.Code
	route.Name = req.Name
	route.Origin = req.Origin
	route.Destination = req.Destination
	route.Status = models.RouteStatus(req.Status)

	if err := s.repo.Update(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update route")
	}
	s.invalidate(ctx)
	return route, nil
}

func (s *RouteService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePrefix(ctx, routeCachePrefix)
	}
}
