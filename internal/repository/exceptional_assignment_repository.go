package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// ErrDateAlreadyAssigned signals that another active exceptional assignment
// occupies the requested (unit, date) pair, detected inside the insert
// transaction for operational units.
var ErrDateAlreadyAssigned = errors.New("unit already has an active exceptional assignment for this date")

// ExceptionalAssignmentRepository persists one-time route overrides.
type ExceptionalAssignmentRepository struct {
	db *sqlx.DB
}

// NewExceptionalAssignmentRepository constructs the repository.
func NewExceptionalAssignmentRepository(db *sqlx.DB) *ExceptionalAssignmentRepository {
	return &ExceptionalAssignmentRepository{db: db}
}

const exceptionalAssignmentColumns = `id, unit_id, route_id, travel_date, active, reason_code, reason_detail,
priority, requires_authorization, authorized_by, authorized_at, assigned_by, notes, unassigned_at, created_at, updated_at`

// FindByID loads one assignment.
func (r *ExceptionalAssignmentRepository) FindByID(ctx context.Context, id string) (*models.ExceptionalAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM exceptional_assignments WHERE id = $1`, exceptionalAssignmentColumns)
	var assignment models.ExceptionalAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindActiveInRange returns the unit's active assignments whose travel date
// falls within [start, end], excluding excludeID when updating. A zero end
// leaves the range open-ended.
func (r *ExceptionalAssignmentRepository) FindActiveInRange(ctx context.Context, unitID string, start, end time.Time, excludeID string) ([]models.ExceptionalAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM exceptional_assignments
WHERE unit_id = $1 AND active = TRUE AND travel_date >= $2 AND ($3::timestamptz IS NULL OR travel_date <= $3) AND id <> $4
ORDER BY travel_date ASC`, exceptionalAssignmentColumns)
	var upper interface{}
	if !end.IsZero() {
		upper = end
	}
	var assignments []models.ExceptionalAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, unitID, start, upper, excludeID); err != nil {
		return nil, fmt.Errorf("find active exceptional assignments: %w", err)
	}
	return assignments, nil
}

// List returns assignments with catalog details.
func (r *ExceptionalAssignmentRepository) List(ctx context.Context, filter models.ExceptionalAssignmentFilter) ([]models.ExceptionalAssignmentDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.UnitID != "" {
		args = append(args, filter.UnitID)
		conditions = append(conditions, fmt.Sprintf("ea.unit_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("ea.travel_date = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("ea.active = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM exceptional_assignments ea WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exceptional assignments: %w", err)
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

	query := fmt.Sprintf(`
SELECT ea.id, ea.unit_id, ea.route_id, ea.travel_date, ea.active, ea.reason_code, ea.reason_detail,
       ea.priority, ea.requires_authorization, ea.authorized_by, ea.authorized_at, ea.assigned_by,
       ea.notes, ea.unassigned_at, ea.created_at, ea.updated_at,
       u.code AS unit_code, rt.code AS route_code, rt.name AS route_name
FROM exceptional_assignments ea
JOIN units u ON u.id = ea.unit_id
JOIN routes rt ON rt.id = ea.route_id
WHERE %s
ORDER BY ea.travel_date DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	var assignments []models.ExceptionalAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exceptional assignments: %w", err)
	}
	return assignments, total, nil
}

// Create inserts an active assignment. When enforceSingle is set (operational
// units) the per-date uniqueness is re-checked under a row lock in the same
// transaction, so concurrent creates for the same unit and date cannot both
// land.
func (r *ExceptionalAssignmentRepository) Create(ctx context.Context, assignment *models.ExceptionalAssignment, enforceSingle bool) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if enforceSingle {
		const check = `SELECT 1 FROM exceptional_assignments
WHERE unit_id = $1 AND travel_date = $2 AND active = TRUE LIMIT 1 FOR UPDATE`
		var one int
		err := tx.GetContext(ctx, &one, check, assignment.UnitID, assignment.TravelDate)
		if err == nil {
			return ErrDateAlreadyAssigned
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check exceptional assignment date: %w", err)
		}
	}

	const query = `INSERT INTO exceptional_assignments
(id, unit_id, route_id, travel_date, active, reason_code, reason_detail, priority, requires_authorization,
 authorized_by, authorized_at, assigned_by, notes, unassigned_at, created_at, updated_at)
VALUES (:id, :unit_id, :route_id, :travel_date, :active, :reason_code, :reason_detail, :priority, :requires_authorization,
 :authorized_by, :authorized_at, :assigned_by, :notes, :unassigned_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create exceptional assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Update persists descriptive fields. Unit, route and travel date are
// immutable after creation and deliberately absent from the statement.
func (r *ExceptionalAssignmentRepository) Update(ctx context.Context, assignment *models.ExceptionalAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exceptional_assignments SET reason_code = :reason_code, reason_detail = :reason_detail,
priority = :priority, requires_authorization = :requires_authorization, authorized_by = :authorized_by,
authorized_at = :authorized_at, notes = :notes, active = :active, unassigned_at = :unassigned_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update exceptional assignment: %w", err)
	}
	return requireRowsAffected(result, "update exceptional assignment")
}
