package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// ErrActiveAssignmentExists signals a violated one-active-assignment-per-unit
// invariant detected inside a write transaction.
var ErrActiveAssignmentExists = errors.New("unit already has an active permanent assignment")

// PermanentAssignmentRepository persists recurring unit-itinerary bindings and
// their append-only history. Mutations that change state re-check the
// uniqueness invariant and write the history entry inside one transaction, so
// two concurrent creates for the same unit cannot both succeed and history is
// never orphaned.
type PermanentAssignmentRepository struct {
	db *sqlx.DB
}

// NewPermanentAssignmentRepository constructs the repository.
func NewPermanentAssignmentRepository(db *sqlx.DB) *PermanentAssignmentRepository {
	return &PermanentAssignmentRepository{db: db}
}

const permanentAssignmentColumns = `id, unit_id, itinerary_id, state, frequency, operating_days,
assigned_at, unassigned_at, assigned_by, notes, created_at, updated_at`

// FindByID loads one assignment.
func (r *PermanentAssignmentRepository) FindByID(ctx context.Context, id string) (*models.PermanentAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM permanent_assignments WHERE id = $1`, permanentAssignmentColumns)
	var assignment models.PermanentAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindActiveByUnit returns the unit's ACTIVE assignment, or nil when none
// exists. excludeID skips the assignment being updated.
func (r *PermanentAssignmentRepository) FindActiveByUnit(ctx context.Context, unitID, excludeID string) (*models.PermanentAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM permanent_assignments
WHERE unit_id = $1 AND state = $2 AND id <> $3 LIMIT 1`, permanentAssignmentColumns)
	var assignment models.PermanentAssignment
	if err := r.db.GetContext(ctx, &assignment, query, unitID, models.AssignmentActive, excludeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active permanent assignment: %w", err)
	}
	return &assignment, nil
}

// FindDetailByUnit returns the unit's ACTIVE assignment joined with catalog names.
func (r *PermanentAssignmentRepository) FindDetailByUnit(ctx context.Context, unitID string) (*models.PermanentAssignmentDetail, error) {
	const query = `
SELECT pa.id, pa.unit_id, pa.itinerary_id, pa.state, pa.frequency, pa.operating_days,
       pa.assigned_at, pa.unassigned_at, pa.assigned_by, pa.notes, pa.created_at, pa.updated_at,
       u.code AS unit_code, i.name AS itinerary_name
FROM permanent_assignments pa
JOIN units u ON u.id = pa.unit_id
JOIN itineraries i ON i.id = pa.itinerary_id
WHERE pa.unit_id = $1 AND pa.state = $2
LIMIT 1`
	var detail models.PermanentAssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, unitID, models.AssignmentActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find permanent assignment detail: %w", err)
	}
	return &detail, nil
}

// Create inserts an ACTIVE assignment and its ASSIGNED history entry after
// re-checking the uniqueness invariant, all in one transaction.
func (r *PermanentAssignmentRepository) Create(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = now
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockActiveAssignment(ctx, tx, assignment.UnitID, assignment.ID); err != nil {
			return err
		}
		const query = `INSERT INTO permanent_assignments
(id, unit_id, itinerary_id, state, frequency, operating_days, assigned_at, unassigned_at, assigned_by, notes, created_at, updated_at)
VALUES (:id, :unit_id, :itinerary_id, :state, :frequency, :operating_days, :assigned_at, :unassigned_at, :assigned_by, :notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
			return fmt.Errorf("create permanent assignment: %w", err)
		}
		return appendHistoryTx(ctx, tx, assignment.ID, entry)
	})
}

// Update persists mutable fields. When entry is non-nil it is appended in the
// same transaction; a nil entry records a no-op update without history noise.
func (r *PermanentAssignmentRepository) Update(ctx context.Context, assignment *models.PermanentAssignment, entry *models.HistoryEntry) error {
	assignment.UpdatedAt = time.Now().UTC()
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const query = `UPDATE permanent_assignments SET itinerary_id = :itinerary_id, frequency = :frequency,
operating_days = :operating_days, notes = :notes, updated_at = :updated_at
WHERE id = :id`
		result, err := tx.NamedExecContext(ctx, query, assignment)
		if err != nil {
			return fmt.Errorf("update permanent assignment: %w", err)
		}
		if err := requireRowsAffected(result, "update permanent assignment"); err != nil {
			return err
		}
		return appendHistoryTx(ctx, tx, assignment.ID, entry)
	})
}

// Transition moves the assignment to a new state, stamping or clearing the
// un-assignment timestamp, and appends the transition's history entry.
// Reactivation (target ACTIVE) re-checks the uniqueness invariant first.
func (r *PermanentAssignmentRepository) Transition(ctx context.Context, assignment *models.PermanentAssignment, state models.PermanentAssignmentState, entry *models.HistoryEntry) error {
	now := time.Now().UTC()
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if state == models.AssignmentActive {
			if err := lockActiveAssignment(ctx, tx, assignment.UnitID, assignment.ID); err != nil {
				return err
			}
		}

		var unassignedAt *time.Time
		if state != models.AssignmentActive {
			if assignment.UnassignedAt != nil {
				unassignedAt = assignment.UnassignedAt
			} else {
				unassignedAt = &now
			}
		}

		const query = `UPDATE permanent_assignments SET state = $2, unassigned_at = $3, updated_at = $4 WHERE id = $1`
		result, err := tx.ExecContext(ctx, query, assignment.ID, state, unassignedAt, now)
		if err != nil {
			return fmt.Errorf("transition permanent assignment: %w", err)
		}
		if err := requireRowsAffected(result, "transition permanent assignment"); err != nil {
			return err
		}

		assignment.State = state
		assignment.UnassignedAt = unassignedAt
		assignment.UpdatedAt = now
		return appendHistoryTx(ctx, tx, assignment.ID, entry)
	})
}

// ListHistory returns the assignment's history, oldest first.
func (r *PermanentAssignmentRepository) ListHistory(ctx context.Context, assignmentID string) ([]models.HistoryEntry, error) {
	const query = `SELECT id, assignment_id, action, detail, actor_id, created_at
FROM permanent_assignment_history WHERE assignment_id = $1 ORDER BY created_at ASC`
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	return entries, nil
}

func (r *PermanentAssignmentRepository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lockActiveAssignment takes a row lock on any competing ACTIVE assignment for
// the unit and fails when one exists. The lock serialises concurrent creates.
func lockActiveAssignment(ctx context.Context, tx *sqlx.Tx, unitID, excludeID string) error {
	const query = `SELECT 1 FROM permanent_assignments
WHERE unit_id = $1 AND state = $2 AND id <> $3 LIMIT 1 FOR UPDATE`
	var one int
	err := tx.GetContext(ctx, &one, query, unitID, models.AssignmentActive, excludeID)
	if err == nil {
		return ErrActiveAssignmentExists
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return fmt.Errorf("check active permanent assignment: %w", err)
}

func appendHistoryTx(ctx context.Context, tx *sqlx.Tx, assignmentID string, entry *models.HistoryEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.AssignmentID = assignmentID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO permanent_assignment_history (id, assignment_id, action, detail, actor_id, created_at)
VALUES (:id, :assignment_id, :action, :detail, :actor_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append assignment history: %w", err)
	}
	return nil
}
