package usecase

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

// RunTracker records every step invocation in the run ledger. A tracker
// without a store still hands out log paths.
type RunTracker struct {
	Store   RunStore
	LogsDir string
	Now     func() time.Time
}

func NewRunTracker(store RunStore, logsDir string) *RunTracker {
	return &RunTracker{
		Store:   store,
		LogsDir: logsDir,
		Now:     time.Now,
	}
}

// Run is a started step. Finish must be called exactly once.
type Run struct {
	Record  entity.RunRecord
	tracker *RunTracker
}

func (t *RunTracker) Start(ctx context.Context, step entity.RunStep, meta entity.ReleaseMetadata) *Run {
	if t == nil {
		return &Run{Record: entity.RunRecord{Step: step}}
	}
	id := uuid.New().String()
	record := entity.RunRecord{
		ID:        id,
		Step:      step,
		AppName:   meta.Name,
		Version:   meta.Version,
		State:     entity.RunStarted,
		StartedAt: t.now(),
	}
	if t.LogsDir != "" {
		record.LogPath = filepath.Join(t.LogsDir, id+".log")
	}
	run := &Run{Record: record, tracker: t}
	run.save(ctx)
	slog.Debug("run started", slog.String("id", id), slog.String("step", string(step)))
	return run
}

// Finish marks the run SUCCESS when err is nil and FAILURE otherwise.
func (r *Run) Finish(ctx context.Context, err error) {
	if r.tracker == nil {
		return
	}
	r.Record.FinishedAt = r.tracker.now()
	if err != nil {
		r.Record.State = entity.RunFailure
		r.Record.Message = err.Error()
	} else {
		r.Record.State = entity.RunSuccess
	}
	r.save(ctx)
	slog.Debug("run finished",
		slog.String("id", r.Record.ID),
		slog.String("state", r.Record.State),
		slog.Duration("duration", r.Record.Duration()),
	)
}

func (r *Run) save(ctx context.Context) {
	if r.tracker.Store == nil {
		return
	}
	if err := r.tracker.Store.RecordRun(ctx, r.Record); err != nil {
		slog.Warn("failed to record run", slog.String("id", r.Record.ID), slog.Any("error", err))
	}
}

func (t *RunTracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}
