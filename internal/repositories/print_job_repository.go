package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phone_ordering_backend/internal/models"

	"github.com/google/uuid"
)

// PrintJobRepository stores the durable record of kitchen prints.
type PrintJobRepository interface {
	CreatePrintJob(ctx context.Context, executor SQLExecutor, job *models.PrintJob) error
	FindPrintJobByKey(ctx context.Context, executor SQLExecutor, orderID, idempotencyKey string) (*models.PrintJob, error)
	ListPrintJobsByOrder(ctx context.Context, orderID string) ([]models.PrintJob, error)
	RecordDispatch(ctx context.Context, jobID string, status models.PrintJobStatus, externalJobID, errMsg *string) error
}

type printJobRepository struct {
	db *sql.DB
}

// NewPrintJobRepository creates a new instance of PrintJobRepository.
func NewPrintJobRepository(db *sql.DB) PrintJobRepository {
	return &printJobRepository{db: db}
}

const printJobColumns = `id, order_id, tenant_id, idempotency_key, external_job_id, status, error, created_at, updated_at`

func scanPrintJob(row scanner) (*models.PrintJob, error) {
	job := &models.PrintJob{}
	err := row.Scan(&job.ID, &job.OrderID, &job.TenantID, &job.IdempotencyKey, &job.ExternalJobID,
		&job.Status, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CreatePrintJob inserts a queued job. A reused idempotency key for the same order yields ErrDuplicateKey.
func (r *printJobRepository) CreatePrintJob(ctx context.Context, executor SQLExecutor, job *models.PrintJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.PrintJobQueued
	}
	now := time.Now()
	job.CreatedAt, job.UpdatedAt = now, now

	query := `INSERT INTO print_jobs (` + printJobColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := executor.ExecContext(ctx, query,
		job.ID, job.OrderID, job.TenantID, job.IdempotencyKey, job.ExternalJobID, job.Status, job.Error,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating print job")
	}
	return nil
}

func (r *printJobRepository) FindPrintJobByKey(ctx context.Context, executor SQLExecutor, orderID, idempotencyKey string) (*models.PrintJob, error) {
	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE order_id = $1 AND idempotency_key = $2`
	job, err := scanPrintJob(executor.QueryRowContext(ctx, query, orderID, idempotencyKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding print job for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return job, nil
}

func (r *printJobRepository) ListPrintJobsByOrder(ctx context.Context, orderID string) ([]models.PrintJob, error) {
	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE order_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying print jobs for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	jobs := []models.PrintJob{}
	for rows.Next() {
		job, err := scanPrintJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning print job: %v", ErrDatabaseError, err)
		}
		jobs = append(jobs, *job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating print job rows: %v", ErrDatabaseError, err)
	}
	return jobs, nil
}

// RecordDispatch stores the outcome of handing the job to the print service.
func (r *printJobRepository) RecordDispatch(ctx context.Context, jobID string, status models.PrintJobStatus, externalJobID, errMsg *string) error {
	query := `UPDATE print_jobs SET status = $1, external_job_id = $2, error = $3, updated_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, status, externalJobID, errMsg, time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("%w: recording dispatch for print job %s: %v", ErrDatabaseError, jobID, err)
	}
	return requireAffected(result, "print job dispatch "+jobID)
}
