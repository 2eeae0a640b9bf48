package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
	appErrors "github.com/noah-isme/fleet-fuel-api/pkg/errors"
	"github.com/noah-isme/fleet-fuel-api/pkg/export"
	"github.com/noah-isme/fleet-fuel-api/pkg/jobs"
)

const reportJobType = "schedule_report"

type reportJobRepo interface {
	Create(ctx context.Context, job *models.ScheduleReportJob) error
	FindByID(ctx context.Context, id string) (*models.ScheduleReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ScheduleReportStatus, filePath, failReason *string) error
}

type dayResolver interface {
	ResolveDay(ctx context.Context, unitID string, date time.Time) (*models.DayResolution, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type urlSigner interface {
	Generate(relPath string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// ScheduleReportRequest asks for an availability report over a date range.
type ScheduleReportRequest struct {
	UnitID    string `json:"unit_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Format    string `json:"format" validate:"required,oneof=csv pdf"`
}

// ScheduleReportService generates unit schedule reports asynchronously. A
// request persists a PENDING job and enqueues it; a worker resolves every day
// in the range, renders the file and stores it for signed-URL download.
type ScheduleReportService struct {
	units     unitReader
	resolver  dayResolver
	repo      reportJobRepo
	storage   reportStorage
	signer    urlSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	maxDays   int
}

// NewScheduleReportService constructs the report service and its worker queue.
func NewScheduleReportService(
	units unitReader,
	resolver dayResolver,
	repo reportJobRepo,
	storage reportStorage,
	signer urlSigner,
	maxDays, workers, retries int,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDays <= 0 {
		maxDays = 92
	}
	s := &ScheduleReportService{
		units:     units,
		resolver:  resolver,
		repo:      repo,
		storage:   storage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		maxDays:   maxDays,
	}
	s.queue = jobs.NewQueue(reportJobType, s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *ScheduleReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ScheduleReportService) Stop() {
	s.queue.Stop()
}

// Request validates and enqueues a report job.
func (s *ScheduleReportService) Request(ctx context.Context, req ScheduleReportRequest, actorID string) (*models.ScheduleReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.maxDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds the %d day report limit", s.maxDays))
	}

	if _, err := s.units.FindByID(ctx, req.UnitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}

	job := &models.ScheduleReportJob{
		UnitID:      req.UnitID,
		StartDate:   start,
		EndDate:     end,
		Format:      req.Format,
		Status:      models.ReportPending,
		RequestedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		reason := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, models.ReportFailed, nil, &reason); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

// Get returns a report job, attaching a signed download URL when completed.
func (s *ScheduleReportService) Get(ctx context.Context, id string) (*models.ScheduleReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}

	if job.Status == models.ReportCompleted && job.FilePath != nil {
		token, _, err := s.signer.Generate(*job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign report url", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := fmt.Sprintf("/api/v1/reports/schedule/download?token=%s", token)
			job.DownloadURL = &url
		}
	}
	return job, nil
}

// OpenDownload validates a signed token and opens the referenced file.
func (s *ScheduleReportService) OpenDownload(token string) (*os.File, error) {
	relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}
	return file, nil
}

// process is the queue handler: it renders and stores one report.
func (s *ScheduleReportService) process(ctx context.Context, queued jobs.Job) error {
	jobID, ok := queued.Payload.(string)
	if !ok || jobID == "" {
		s.logger.Error("report job carries no id", zap.String("queued_id", queued.ID))
		return nil
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, models.ReportRunning, nil, nil); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}

	filePath, err := s.generate(ctx, job)
	if err != nil {
		reason := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, models.ReportFailed, nil, &reason); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, models.ReportCompleted, &filePath, nil); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	s.logger.Info("schedule report generated", zap.String("job_id", job.ID), zap.String("file", filePath))
	return nil
}

func (s *ScheduleReportService) generate(ctx context.Context, job *models.ScheduleReportJob) (string, error) {
	unit, err := s.units.FindByID(ctx, job.UnitID)
	if err != nil {
		return "", fmt.Errorf("load unit: %w", err)
	}

	table := export.Table{
		Title:    fmt.Sprintf("Schedule for unit %s", unit.Code),
		Subtitle: fmt.Sprintf("%s to %s", job.StartDate.Format("2006-01-02"), job.EndDate.Format("2006-01-02")),
		Headers:  []string{"Date", "Weekday", "Assignment", "Details"},
	}

	for day := dateOnly(job.StartDate); !day.After(dateOnly(job.EndDate)); day = day.AddDate(0, 0, 1) {
		resolution, err := s.resolver.ResolveDay(ctx, job.UnitID, day)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", day.Format("2006-01-02"), err)
		}
		table.Rows = append(table.Rows, []string{
			day.Format("2006-01-02"),
			models.WeekdayName(day),
			string(resolution.Kind),
			resolution.Details,
		})
	}

	var data []byte
	switch job.Format {
	case "pdf":
		data, err = s.pdf.Render(table)
	default:
		data, err = s.csv.Render(table)
	}
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	filename := fmt.Sprintf("schedule_%s_%s.%s", unit.Code, job.ID, job.Format)
	return s.storage.Save(filename, data)
}
