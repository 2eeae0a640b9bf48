package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// RouteRepository persists one-time assignable routes.
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository constructs the repository.
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// List returns routes matching the filter plus the total count.
func (r *RouteRepository) List(ctx context.Context, filter models.RouteFilter) ([]models.Route, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM routes WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count routes: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)

	query := fmt.Sprintf(`SELECT id, code, name, origin, destination, status, created_at, updated_at
FROM routes WHERE %s ORDER BY code ASC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var routes []models.Route
	if err := r.db.SelectContext(ctx, &routes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list routes: %w", err)
	}
	return routes, total, nil
}

// FindByID loads one route.
func (r *RouteRepository) FindByID(ctx context.Context, id string) (*models.Route, error) {
	const query = `SELECT id, code, name, origin, destination, status, created_at, updated_at
FROM routes WHERE id = $1`
	var route models.Route
	if err := r.db.GetContext(ctx, &route, query, id); err != nil {
		return nil, err
	}
	return &route, nil
}

// Create inserts a new route.
func (r *RouteRepository) Create(ctx context.Context, route *models.Route) error {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	route.CreatedAt = now
	route.UpdatedAt = now
	const query = `INSERT INTO routes (id, code, name, origin, destination, status, created_at, updated_at)
VALUES (:id, :code, :name, :origin, :destination, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("create route: %w", err)
	}
	return nil
}

// Update persists mutable route fields.
func (r *RouteRepository) Update(ctx context.Context, route *models.Route) error {
	route.UpdatedAt = time.Now().UTC()
	const query = `UPDATE routes SET code = :code, name = :name, origin = :origin,
destination = :destination, status = :status, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, route)
	if err != nil {
		return fmt.Errorf("update route: %w", err)
	}
	return requireRowsAffected(result, "update route")
}
