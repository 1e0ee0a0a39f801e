package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

var ErrRunNotFound = errors.New("run not found")

// RunStore handles run persistence in SQLite
type RunStore struct {
	db      *DB
	maxRuns int
}

// NewRunStore creates a new run store
func NewRunStore(db *DB, maxRuns int) *RunStore {
	if maxRuns <= 0 {
		maxRuns = 200
	}
	return &RunStore{
		db:      db,
		maxRuns: maxRuns,
	}
}

const runColumns = `run_uuid, step, app_name, version, artifact_path, installer_path,
	remote_url, state, message, log_path, started_at, finished_at`

// RecordRun inserts a run or updates it when the run id already exists
func (s *RunStore) RecordRun(ctx context.Context, run entity.RunRecord) error {
	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_uuid) DO UPDATE SET
			app_name = excluded.app_name,
			version = excluded.version,
			artifact_path = excluded.artifact_path,
			installer_path = excluded.installer_path,
			remote_url = excluded.remote_url,
			state = excluded.state,
			message = excluded.message,
			log_path = excluded.log_path,
			finished_at = excluded.finished_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, string(run.Step), run.AppName, run.Version, run.ArtifactPath, run.InstallerPath,
		run.RemoteURL, run.State, run.Message, run.LogPath, toMillis(run.StartedAt), toMillis(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := s.cleanupOldRuns(ctx); err != nil {
		// Log but don't fail
		slog.Warn("failed to cleanup old runs", slog.Any("error", err))
	}

	return nil
}

// GetRun retrieves a run by id
func (s *RunStore) GetRun(ctx context.Context, runID string) (*entity.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_uuid = ?`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// GetLatestRun retrieves the most recently started run
func (s *RunStore) GetLatestRun(ctx context.Context) (*entity.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`

	run, err := scanRun(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, nil
}

// GetLastSuccessfulRun retrieves the newest successful run of a step for an app
func (s *RunStore) GetLastSuccessfulRun(ctx context.Context, step entity.RunStep, appName string) (*entity.RunRecord, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE step = ? AND app_name = ? AND state = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, string(step), appName, entity.RunSuccess))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}

	return run, nil
}

// GetRecentRuns retrieves the N most recent runs
func (s *RunStore) GetRecentRuns(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*entity.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*entity.RunRecord, error) {
	var (
		run        entity.RunRecord
		step       string
		startedAt  int64
		finishedAt int64
	)
	err := row.Scan(
		&run.ID, &step, &run.AppName, &run.Version, &run.ArtifactPath, &run.InstallerPath,
		&run.RemoteURL, &run.State, &run.Message, &run.LogPath, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Step = entity.RunStep(step)
	run.StartedAt = fromMillis(startedAt)
	run.FinishedAt = fromMillis(finishedAt)
	return &run, nil
}

// cleanupOldRuns removes runs exceeding the maximum count
func (s *RunStore) cleanupOldRuns(ctx context.Context) error {
	query := `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
	`

	_, err := s.db.ExecContext(ctx, query, s.maxRuns)
	return err
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
