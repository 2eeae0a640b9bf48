package models

import "time"

// ScheduleReportStatus tracks the lifecycle of an async report job.
type ScheduleReportStatus string

const (
	ReportPending   ScheduleReportStatus = "PENDING"
	ReportRunning   ScheduleReportStatus = "RUNNING"
	ReportCompleted ScheduleReportStatus = "COMPLETED"
	ReportFailed    ScheduleReportStatus = "FAILED"
)

// ScheduleReportJob is the persisted record for an availability report request.
type ScheduleReportJob struct {
	ID          string               `db:"id" json:"id"`
	UnitID      string               `db:"unit_id" json:"unit_id"`
	StartDate   time.Time            `db:"start_date" json:"start_date"`
	EndDate     time.Time            `db:"end_date" json:"end_date"`
	Format      string               `db:"format" json:"format"`
	Status      ScheduleReportStatus `db:"status" json:"status"`
	FilePath    *string              `db:"file_path" json:"file_path,omitempty"`
	DownloadURL *string              `db:"-" json:"download_url,omitempty"`
	FailReason  *string              `db:"fail_reason" json:"fail_reason,omitempty"`
	RequestedBy string               `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}
