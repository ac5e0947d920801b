package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
)

// Job is one parse attempt on one source file.
type Job struct {
	ID         uuid.UUID
	SourceFile string
	Format     string
	Status     constants.JobStatus
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateJob records a queued job for a source file.
func (s *Store) CreateJob(ctx context.Context, sourceFile, format string) (Job, error) {
	now := sqlTime(time.Now())
	job := Job{
		ID:         uuid.New(),
		SourceFile: sourceFile,
		Format:     format,
		Status:     constants.JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO parse_jobs (id, source_file, format, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, ?)`),
		job.ID.String(), job.SourceFile, job.Format, string(job.Status), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return Job{}, common.NewAppError("DB_INSERT", "create job", err)
	}
	return job, nil
}

// UpdateJobStatus moves a job through its lifecycle; errMsg is kept only for
// failed transitions.
func (s *Store) UpdateJobStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE parse_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`),
		string(status), errMsg, sqlTime(time.Now()), id.String())
	if err != nil {
		return common.NewAppError("DB_UPDATE", "update job status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("DB_UPDATE", "job "+id.String(), common.ErrNotFound)
	}
	return nil
}

// GetJob fetches one job by id.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, source_file, format, status, error, created_at, updated_at
		 FROM parse_jobs WHERE id = ?`), id.String())
	return scanJob(row)
}

// ListJobs returns jobs with the given status, newest first. An empty status
// lists everything.
func (s *Store) ListJobs(ctx context.Context, status constants.JobStatus) ([]Job, error) {
	query := `SELECT id, source_file, format, status, error, created_at, updated_at
		FROM parse_jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list jobs", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var id, status string
	if err := row.Scan(&id, &job.SourceFile, &job.Format, &status, &job.Error,
		&job.CreatedAt, &job.UpdatedAt); err != nil {
		return Job{}, common.NewAppError("DB_SCAN", "scan job", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Job{}, common.NewAppError("DB_SCAN", "job id", err)
	}
	job.ID = parsed
	job.Status = constants.JobStatus(status)
	return job, nil
}
