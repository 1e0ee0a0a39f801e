package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/storage"
)

func TestNotNewer(t *testing.T) {
	tests := []struct {
		current, last string
		want          bool
	}{
		{"3.1.0", "3.0.9", false},
		{"3.1", "3.1.0", true},
		{"3.0.0", "3.1.0", true},
		{"3.2.0-beta.1", "3.1.0", false},
		{"3.1.0-rc.1", "3.1.0", true},
		{"garbage", "3.1.0", false},
		{"3.1.0", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NotNewer(tt.current, tt.last), "%s vs %s", tt.current, tt.last)
	}
}

func TestHistoryUsecase(t *testing.T) {
	ctx := context.Background()
	store := newTestRunStore(t)
	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.RecordRun(ctx, entity.RunRecord{
			ID:        fmt.Sprintf("run-%02d", i),
			Step:      entity.StepBuild,
			State:     entity.RunSuccess,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	uc := NewHistoryUsecase(store)

	runs, err := uc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, DefaultHistoryLimit)
	assert.Equal(t, "run-24", runs[0].ID)

	runs, err = uc.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, runs, 5)

	latest, err := uc.Find(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "run-24", latest.ID)

	found, err := uc.Find(ctx, " run-03 ")
	require.NoError(t, err)
	assert.Equal(t, "run-03", found.ID)

	_, err = uc.Find(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrRunNotFound))
}

func TestInstallerUsecase_WarnsOnOldVersionButPackages(t *testing.T) {
	ctx := context.Background()
	cfg, _ := testConfig(t)
	prepareInputs(t, cfg)

	store := newTestRunStore(t)
	require.NoError(t, store.RecordRun(ctx, entity.RunRecord{
		ID: "previous", Step: entity.StepPackage, AppName: cfg.App.Name, Version: "3.2.0",
		State: entity.RunSuccess, StartedAt: time.Now().Add(-time.Hour),
	}))

	locator := &fakeLocator{paths: map[string]string{"iscc": "/opt/iscc"}}
	runner := &fakeRunner{onRun: compileInto(t, "PortfolioControlSystemSetup_v3.1.0.exe")}
	uc := NewInstallerUsecase(cfg, locator, runner, nil, nil, NewRunTracker(store, ""))

	_, err := uc.Package(ctx)
	require.NoError(t, err)
}
