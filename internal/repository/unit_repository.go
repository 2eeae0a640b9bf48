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

// UnitRepository persists fleet vehicles.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository constructs the repository.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// List returns units matching the filter plus the total count.
func (r *UnitRepository) List(ctx context.Context, filter models.UnitFilter) ([]models.Unit, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR plate ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM units WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count units: %w", err)
	}

	sortBy := "code"
	switch filter.SortBy {
	case "plate", "created_at":
		sortBy = filter.SortBy
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT id, code, plate, description, operating_mode, role, active, created_at, updated_at
FROM units WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`, where, sortBy, order, len(args)-1, len(args))

	var units []models.Unit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list units: %w", err)
	}
	return units, total, nil
}

// FindByID loads one unit.
func (r *UnitRepository) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	const query = `SELECT id, code, plate, description, operating_mode, role, active, created_at, updated_at
FROM units WHERE id = $1`
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// Create inserts a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	const query = `INSERT INTO units (id, code, plate, description, operating_mode, role, active, created_at, updated_at)
VALUES (:id, :code, :plate, :description, :operating_mode, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// Update persists mutable unit fields.
func (r *UnitRepository) Update(ctx context.Context, unit *models.Unit) error {
	unit.UpdatedAt = time.Now().UTC()
	const query = `UPDATE units SET code = :code, plate = :plate, description = :description,
operating_mode = :operating_mode, role = :role, active = :active, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, unit)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	return requireRowsAffected(result, "update unit")
}

// Deactivate flags the unit inactive.
func (r *UnitRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE units SET active = FALSE, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate unit: %w", err)
	}
	return requireRowsAffected(result, "deactivate unit")
}
