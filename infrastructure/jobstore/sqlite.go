// Package jobstore persists jobs and scan results in SQLite. Every write
// is committed before the method returns, so a crashed pipeline run leaves
// a queryable record of the last phase it reached.
package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cmccoy02/bridge-engine/domain"
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

const timeLayout = time.RFC3339Nano

// SQLiteStore implements domain.JobStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return open(path)
}

// OpenInMemory opens a throwaway in-memory database, used by tests and
// one-shot CLI runs that do not need durability.
func OpenInMemory() (*SQLiteStore, error) {
	return open("file::memory:?cache=shared")
}

func open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	// The shared-cache in-memory database disappears with its last
	// connection; a single connection also sidesteps SQLITE_BUSY on
	// concurrent phase writes.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err = store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			repository_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			progress_json TEXT NOT NULL DEFAULT '{}',
			logs TEXT NOT NULL DEFAULT '',
			result_json TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS scans (
			repository_id TEXT PRIMARY KEY,
			result_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate job store: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *domain.UpdateJob) error {
	progress, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, repository_id, type, status, progress_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.RepositoryID, string(job.Type), string(domain.JobPending),
		string(progress), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) StartJob(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(domain.JobRunning), time.Now().UTC().Format(timeLayout), jobID)
}

func (s *SQLiteStore) SetProgress(ctx context.Context, jobID string, progress domain.JobProgress) error {
	encoded, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	return s.update(ctx, jobID,
		`UPDATE jobs SET progress_json = ? WHERE id = ?`, string(encoded), jobID)
}

func (s *SQLiteStore) AppendLog(ctx context.Context, jobID string, line string) error {
	return s.update(ctx, jobID,
		`UPDATE jobs SET logs = logs || ? || char(10) WHERE id = ?`, line, jobID)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, result *domain.JobResult) error {
	return s.terminate(ctx, jobID, domain.JobCompleted, result)
}

func (s *SQLiteStore) FailJob(ctx context.Context, jobID string, result *domain.JobResult) error {
	return s.terminate(ctx, jobID, domain.JobFailed, result)
}

func (s *SQLiteStore) terminate(
	ctx context.Context, jobID string, status domain.JobStatus, result *domain.JobResult,
) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return s.update(ctx, jobID,
		`UPDATE jobs SET status = ?, result_json = ?, completed_at = ? WHERE id = ?`,
		string(status), string(encoded), time.Now().UTC().Format(timeLayout), jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*domain.UpdateJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, repository_id, type, status, progress_json, logs, result_json, started_at, completed_at
		 FROM jobs WHERE id = ?`, jobID)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit int) ([]*domain.UpdateJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repository_id, type, status, progress_json, logs, result_json, started_at, completed_at
		 FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.UpdateJob
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *SQLiteStore) SaveScan(ctx context.Context, repositoryID string, result *domain.ScanResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode scan result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (repository_id, result_json, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(repository_id) DO UPDATE SET result_json = excluded.result_json, created_at = excluded.created_at`,
		repositoryID, string(encoded), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save scan for %s: %w", repositoryID, err)
	}
	return nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, repositoryID string) (*domain.ScanResult, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM scans WHERE repository_id = ?`, repositoryID).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan for %s: %w", repositoryID, err)
	}

	var result domain.ScanResult
	if err = json.Unmarshal([]byte(encoded), &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan for %s: %w", repositoryID, err)
	}
	return &result, nil
}

// update runs one UPDATE and maps "no rows touched" to ErrJobNotFound.
func (s *SQLiteStore) update(ctx context.Context, jobID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrJobNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.UpdateJob, error) {
	var (
		job                    domain.UpdateJob
		jobType, status        string
		progressJSON, logs     string
		resultJSON             sql.NullString
		startedAt, completedAt sql.NullString
	)
	err := row.Scan(&job.ID, &job.RepositoryID, &jobType, &status,
		&progressJSON, &logs, &resultJSON, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.Logs = logs
	if err = json.Unmarshal([]byte(progressJSON), &job.Progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress for job %s: %w", job.ID, err)
	}
	if resultJSON.Valid {
		job.Result = &domain.JobResult{}
		if err = json.Unmarshal([]byte(resultJSON.String), job.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result for job %s: %w", job.ID, err)
		}
	}
	if startedAt.Valid {
		job.StartedAt, _ = time.Parse(timeLayout, startedAt.String)
	}
	if completedAt.Valid {
		job.CompletedAt, _ = time.Parse(timeLayout, completedAt.String)
	}
	return &job, nil
}
