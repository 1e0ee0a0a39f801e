package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

type failingRunStore struct {
	RunStore
	attempts int
}

func (s *failingRunStore) RecordRun(ctx context.Context, run entity.RunRecord) error {
	s.attempts++
	return errors.New("database is locked")
}

func TestRunTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestRunStore(t)
	tracker := NewRunTracker(store, "/var/log/pcsrel")
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	tracker.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	run := tracker.Start(ctx, entity.StepPackage, entity.ReleaseMetadata{Name: "Portfolio Control System", Version: "3.1.0"})
	assert.NotEmpty(t, run.Record.ID)
	assert.Equal(t, filepath.Join("/var/log/pcsrel", run.Record.ID+".log"), run.Record.LogPath)

	started, err := store.GetRun(ctx, run.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStarted, started.State)
	assert.Equal(t, "Portfolio Control System", started.AppName)

	run.Finish(ctx, errors.New("missing required files: LICENSE.txt"))

	finished, err := store.GetRun(ctx, run.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunFailure, finished.State)
	assert.Equal(t, "missing required files: LICENSE.txt", finished.Message)
	assert.Equal(t, time.Second, finished.Duration())
}

func TestRunTracker_StoreFailureIsNotFatal(t *testing.T) {
	store := &failingRunStore{}
	tracker := NewRunTracker(store, "")

	run := tracker.Start(context.Background(), entity.StepBuild, entity.ReleaseMetadata{})
	run.Finish(context.Background(), nil)

	assert.Equal(t, 2, store.attempts)
	assert.Equal(t, entity.RunSuccess, run.Record.State)
	assert.Empty(t, run.Record.LogPath)
}

func TestRunTracker_Nil(t *testing.T) {
	var tracker *RunTracker

	run := tracker.Start(context.Background(), entity.StepPublish, entity.ReleaseMetadata{})
	run.Finish(context.Background(), nil)

	assert.Equal(t, entity.StepPublish, run.Record.Step)
	assert.Empty(t, run.Record.ID)
}
