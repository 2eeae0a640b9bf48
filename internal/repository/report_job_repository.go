package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// ReportJobRepository persists schedule report jobs.
type ReportJobRepository struct {
	db *sqlx.DB
}

// NewReportJobRepository constructs the repository.
func NewReportJobRepository(db *sqlx.DB) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

// Create inserts a pending report job.
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ScheduleReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.ReportPending
	}
	const query = `INSERT INTO schedule_report_jobs (id, unit_id, start_date, end_date, format, status, file_path, fail_reason, requested_by, created_at, updated_at)
VALUES (:id, :unit_id, :start_date, :end_date, :format, :status, :file_path, :fail_reason, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID loads one report job.
func (r *ReportJobRepository) FindByID(ctx context.Context, id string) (*models.ScheduleReportJob, error) {
	const query = `SELECT id, unit_id, start_date, end_date, format, status, file_path, fail_reason, requested_by, created_at, updated_at
FROM schedule_report_jobs WHERE id = $1`
	var job models.ScheduleReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus advances the job lifecycle, optionally recording the output
// file or failure reason.
func (r *ReportJobRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleReportStatus, filePath, failReason *string) error {
	const query = `UPDATE schedule_report_jobs SET status = $2, file_path = $3, fail_reason = $4, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, filePath, failReason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return requireRowsAffected(result, "update report job")
}
