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

// ItineraryRepository persists recurring route templates.
type ItineraryRepository struct {
	db *sqlx.DB
}

// NewItineraryRepository constructs the repository.
func NewItineraryRepository(db *sqlx.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

// List returns itineraries matching the filter plus the total count.
func (r *ItineraryRepository) List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM itineraries WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count itineraries: %w", err)
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

	query := fmt.Sprintf(`SELECT id, code, name, status, operating_days, created_at, updated_at
FROM itineraries WHERE %s ORDER BY code ASC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var itineraries []models.Itinerary
	if err := r.db.SelectContext(ctx, &itineraries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list itineraries: %w", err)
	}
	return itineraries, total, nil
}

// FindByID loads one itinerary.
func (r *ItineraryRepository) FindByID(ctx context.Context, id string) (*models.Itinerary, error) {
	const query = `SELECT id, code, name, status, operating_days, created_at, updated_at
FROM itineraries WHERE id = $1`
	var itinerary models.Itinerary
	if err := r.db.GetContext(ctx, &itinerary, query, id); err != nil {
		return nil, err
	}
	return &itinerary, nil
}

// Create inserts a new itinerary.
func (r *ItineraryRepository) Create(ctx context.Context, itinerary *models.Itinerary) error {
	if itinerary.ID == "" {
		itinerary.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	itinerary.CreatedAt = now
	itinerary.UpdatedAt = now
	const query = `INSERT INTO itineraries (id, code, name, status, operating_days, created_at, updated_at)
VALUES (:id, :code, :name, :status, :operating_days, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, itinerary); err != nil {
		return fmt.Errorf("create itinerary: %w", err)
	}
	return nil
}

// Update persists mutable itinerary fields.
func (r *ItineraryRepository) Update(ctx context.Context, itinerary *models.Itinerary) error {
	itinerary.UpdatedAt = time.Now().UTC()
	const query = `UPDATE itineraries SET code = :code, name = :name, status = :status,
operating_days = :operating_days, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, itinerary)
	if err != nil {
		return fmt.Errorf("update itinerary: %w", err)
	}
	return requireRowsAffected(result, "update itinerary")
}

// CountInProgressExecutions reports running executions of the itinerary by the
// unit. Used as the unassign guard: a running operation cannot be detached.
func (r *ItineraryRepository) CountInProgressExecutions(ctx context.Context, unitID, itineraryID string) (int, error) {
	const query = `SELECT COUNT(*) FROM itinerary_executions
WHERE unit_id = $1 AND itinerary_id = $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, unitID, itineraryID, models.ExecutionInProgress); err != nil {
		return 0, fmt.Errorf("count in-progress executions: %w", err)
	}
	return count, nil
}
